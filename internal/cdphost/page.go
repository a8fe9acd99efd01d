package cdphost

import "net/http"

// LightweightChartsURL is the charting library loaded by the surface page.
const LightweightChartsURL = "https://unpkg.com/lightweight-charts@4.2.0/dist/lightweight-charts.standalone.production.js"

// PageHandler serves the page the host drives.
func PageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(surfacePage))
}

const surfacePage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>paneview</title>
<style>
  html, body { margin: 0; padding: 0; background: #1e1e1e; }
  #panes { display: flex; flex-direction: column; width: 100%; }
  #panes > div { width: 100%; }
</style>
<script src="` + LightweightChartsURL + `"></script>
</head>
<body>
<div id="panes">
  <div id="pane-price"></div>
  <div id="pane-rsi"></div>
  <div id="pane-macd"></div>
</div>
<script>
(function () {
  var LW = window.LightweightCharts;
  var surfaces = {};

  function emit(surface, sub, kind, data) {
    if (typeof window.` + bindingName + ` !== "function") return;
    window.` + bindingName + `(JSON.stringify({surface: surface, sub: sub, kind: kind, data: data}));
  }

  function get(id) {
    var s = surfaces[id];
    if (!s) throw new Error("unknown surface " + id);
    return s;
  }

  function seriesOf(s, id) {
    var api = s.series[id];
    if (!api) throw new Error("unknown series " + id);
    return api;
  }

  function margins(m) {
    return m ? {top: m.top, bottom: m.bottom} : undefined;
  }

  function seriesOptions(o) {
    var out = {priceLineVisible: !!o.priceLineVisible};
    if (o.title) out.title = o.title;
    if (o.color) out.color = o.color;
    if (o.lineWidth) out.lineWidth = o.lineWidth;
    if (o.priceScaleId) out.priceScaleId = o.priceScaleId;
    if (o.priceFormat === "volume") out.priceFormat = {type: "volume"};
    if (o.base !== undefined && o.base !== null) out.base = o.base;
    return out;
  }

  window.paneview = {
    createSurface: function (id, element, opts) {
      var el = document.getElementById(element);
      if (!el) {
        el = document.createElement("div");
        el.id = element;
        document.getElementById("panes").appendChild(el);
      }
      var t = opts.theme;
      var chart = LW.createChart(el, {
        width: opts.width,
        height: opts.height,
        layout: {background: {type: "solid", color: t.background}, textColor: t.text},
        grid: {vertLines: {color: t.grid}, horzLines: {color: t.grid}},
        crosshair: {mode: t.crosshair_mode === "magnet" ? LW.CrosshairMode.Magnet : LW.CrosshairMode.Normal},
        timeScale: {timeVisible: t.time_visible},
        rightPriceScale: {scaleMargins: margins(t.right_margins)},
        leftPriceScale: {visible: true, scaleMargins: margins(t.left_margins)}
      });
      surfaces[id] = {chart: chart, element: el, series: {}, subs: {}};
      return id;
    },
    addSeries: function (id, seriesID, kind, opts) {
      var s = get(id);
      var o = seriesOptions(opts);
      var api;
      if (kind === "candlestick") api = s.chart.addCandlestickSeries(o);
      else if (kind === "histogram") api = s.chart.addHistogramSeries(o);
      else api = s.chart.addLineSeries(o);
      if (opts.scaleMargins) {
        s.chart.priceScale(o.priceScaleId || "right").applyOptions({scaleMargins: margins(opts.scaleMargins)});
      }
      s.series[seriesID] = api;
      return seriesID;
    },
    setData: function (id, seriesID, points) {
      seriesOf(get(id), seriesID).setData(points || []);
      return true;
    },
    subscribe: function (id, sub, kind) {
      var s = get(id);
      var fn;
      if (kind === "range") {
        fn = function (r) { if (r) emit(id, sub, "range", {from: r.from, to: r.to}); };
        s.chart.timeScale().subscribeVisibleTimeRangeChange(fn);
      } else {
        fn = function (p) {
          emit(id, sub, "crosshair", {time: p.time === undefined ? null : p.time, point: p.point || null});
        };
        s.chart.subscribeCrosshairMove(fn);
      }
      s.subs[sub] = {kind: kind, fn: fn};
      return sub;
    },
    unsubscribe: function (id, sub) {
      var s = get(id);
      var entry = s.subs[sub];
      if (!entry) return false;
      if (entry.kind === "range") s.chart.timeScale().unsubscribeVisibleTimeRangeChange(entry.fn);
      else s.chart.unsubscribeCrosshairMove(entry.fn);
      delete s.subs[sub];
      return true;
    },
    visibleRange: function (id) {
      var r = get(id).chart.timeScale().getVisibleRange();
      return r ? {from: r.from, to: r.to} : null;
    },
    setVisibleRange: function (id, r) {
      get(id).chart.timeScale().setVisibleRange({from: r.from, to: r.to});
      return true;
    },
    setCrosshair: function (id, price, time, seriesID) {
      var s = get(id);
      s.chart.setCrosshairPosition(price, time, seriesOf(s, seriesID));
      return true;
    },
    clearCrosshair: function (id) {
      get(id).chart.clearCrosshairPosition();
      return true;
    },
    resize: function (id, width, height) {
      get(id).chart.resize(width, height);
      return true;
    },
    coordinateToPrice: function (id, seriesID, y) {
      var p = seriesOf(get(id), seriesID).coordinateToPrice(y);
      return p === null || p === undefined ? null : p;
    },
    remove: function (id) {
      var s = get(id);
      s.chart.remove();
      delete surfaces[id];
      return true;
    }
  };
})();
</script>
</body>
</html>
`
