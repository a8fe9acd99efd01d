package api

// docsHTML shares the nav bar of eventsDocsHTML and embeds the OpenAPI
// reference below it.
const docsHTML = `<!doctype html>
<html lang="en" data-theme="dark">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Control API - Paneview</title>
  <link rel="stylesheet" href="https://unpkg.com/@stoplight/elements@9.0.0/styles.min.css" />
  <script src="https://unpkg.com/@stoplight/elements@9.0.0/web-components.min.js" crossorigin="anonymous"></script>
  <style>
    html, body { height: 100%; margin: 0; background: #0d1117; }
    body { display: flex; flex-direction: column; font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }
    nav {
      flex: none;
      background: #161b22;
      border-bottom: 1px solid #30363d;
      padding: 0 24px;
      height: 48px;
      display: flex;
      align-items: center;
      gap: 24px;
      font-size: 14px;
    }
    nav .brand { font-weight: 600; font-size: 15px; color: #e6edf3; }
    nav a { color: #58a6ff; text-decoration: none; }
    nav a:hover { text-decoration: underline; }
    nav .note { margin-left: auto; color: #8b949e; font-size: 12px; }
    .reference { flex: 1; min-height: 0; }
  </style>
</head>
<body>
<nav>
  <span class="brand">Paneview</span>
  <a href="/docs/events">Event streams &rarr;</a>
  <a href="/openapi.json">openapi.json</a>
  <span class="note">Chart panes, visibility, data loads and snapshots</span>
</nav>
<div class="reference">
  <elements-api
    apiDescriptionUrl="/openapi.json"
    router="hash"
    layout="sidebar"
    hideSchemas
    tryItCredentialsPolicy="same-origin"
  ></elements-api>
</div>
</body>
</html>`
