package api

const eventsDocsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Event Streams - Paneview</title>
  <style>
    body {
      margin: 0;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", sans-serif;
      font-size: 14px;
      line-height: 1.65;
      background: #0d1117;
      color: #c9d1d9;
    }
    a { color: #58a6ff; text-decoration: none; }
    a:hover { text-decoration: underline; }
    nav {
      background: #161b22;
      border-bottom: 1px solid #30363d;
      padding: 0 24px;
      height: 48px;
      display: flex;
      align-items: center;
      gap: 24px;
    }
    nav .brand { font-weight: 600; font-size: 15px; color: #e6edf3; }
    main { max-width: 860px; margin: 0 auto; padding: 32px 16px 64px; }
    h1 { margin: 0 0 8px; font-size: 28px; font-weight: 600; color: #e6edf3; }
    h2 {
      margin: 40px 0 12px;
      font-size: 18px;
      font-weight: 600;
      color: #e6edf3;
      padding-bottom: 8px;
      border-bottom: 1px solid #21262d;
    }
    code, pre { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; font-size: 13px; }
    pre { background: #161b22; border: 1px solid #30363d; border-radius: 6px; padding: 12px 16px; overflow-x: auto; }
    table { border-collapse: collapse; width: 100%; }
    th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #21262d; vertical-align: top; }
    th { color: #8b949e; font-weight: 600; }
  </style>
</head>
<body>
<nav>
  <span class="brand">Paneview</span>
  <a href="/docs">&larr; Control API</a>
</nav>
<main>
  <h1>Event streams</h1>
  <p>View events are relayed over Server-Sent Events and WebSocket. Both carry the same events with the same ids.</p>

  <h2>Endpoints</h2>
  <table>
    <tr><th>Path</th><th>Transport</th></tr>
    <tr><td><code>GET /api/v1/events</code></td><td>SSE, one <code>event:</code> per feed</td></tr>
    <tr><td><code>GET /api/v1/events/ws</code></td><td>WebSocket text frames</td></tr>
  </table>
  <p>Filter with <code>?feeds=tooltip,range</code>. Without it every relayed feed is sent.</p>

  <h2>Feeds</h2>
  <table>
    <tr><th>Feed</th><th>Data</th></tr>
    <tr><td><code>tooltip</code></td><td><code>{record, fields:[{label, value}]}</code>; an empty record clears the tooltip</td></tr>
    <tr><td><code>range</code></td><td><code>{source, range:{from, to}}</code> after a range change propagated from <code>source</code></td></tr>
    <tr><td><code>panes</code></td><td>live pane ids top to bottom, sent when the set changes</td></tr>
    <tr><td><code>data</code></td><td><code>{ticker, records, latest_price}</code> after every load</td></tr>
  </table>
  <p>Feeds and per-feed throttling come from <code>PANEVIEW_RELAY_CONFIG</code>. A throttled feed sends its newest event when the interval closes, so the last state always arrives.</p>

  <h2>SSE</h2>
<pre>id: 12
event: tooltip
data: {"record":{"time":"2024-01-02","close":102},"fields":[{"label":"Date","value":"2024-01-02"}]}
</pre>
  <p>A <code>: keepalive</code> comment is written every 15 seconds.</p>

  <h2>WebSocket</h2>
<pre>{"id":12,"feed":"range","data":{"source":"price","range":{"from":1704067200,"to":1706745600}}}</pre>
  <p>Messages from the client are read and discarded; closing the socket ends the subscription.</p>
</main>
</body>
</html>`
