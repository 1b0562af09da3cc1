package health

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RenderDashboardHTML returns the status page served at GET /. The page is
// rendered server-side from the collected health data and refreshes itself
// from /health/json.
func RenderDashboardHTML(health CollectResult) string {
	b, _ := json.Marshal(health)
	jsonStr := string(b)
	// Escape for embedding in a JS template literal: \ ` $
	jsonStr = strings.ReplaceAll(jsonStr, "\\", "\\\\")
	jsonStr = strings.ReplaceAll(jsonStr, "`", "\\`")
	jsonStr = strings.ReplaceAll(jsonStr, "$", "\\$")

	headline := "All Systems Operational"
	if health.Status != "ok" {
		headline = "System Issues Detected"
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>MicroPaper · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --ink: #1a2332; --accent: #2563eb; --ok: #059669; --err: #dc2626; --muted: #64748b; --bg: #f8fafc; }
    * { box-sizing: border-box; }
    body { background: var(--bg); color: var(--ink); font-family: ui-sans-serif, system-ui, sans-serif; margin: 0; min-height: 100vh; display: flex; align-items: center; justify-content: center; }
    .container { width: 100%; max-width: 880px; padding: 40px 20px; }
    h1 { font-size: clamp(28px, 4vw, 44px); font-weight: 800; letter-spacing: -1px; margin: 0 0 6px; }
    .sub { color: var(--muted); font-weight: 600; margin-bottom: 28px; }
    .card { background: #fff; border: 1px solid #e2e8f0; border-radius: 16px; overflow: hidden; box-shadow: 0 10px 40px -20px rgba(37, 99, 235, 0.15); }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); }
    .col { padding: 28px; border-right: 1px solid #f1f5f9; }
    .col:last-child { border-right: none; }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 800; letter-spacing: 1.5px; color: #94a3b8; margin-bottom: 18px; }
    .big { font-size: 34px; font-weight: 800; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; font-weight: 600; border-bottom: 1px solid #f8fafc; }
    .row:last-child { border-bottom: none; }
    .pill { padding: 3px 10px; border-radius: 8px; font-size: 11px; font-weight: 800; }
    .pill.ok { background: rgba(5, 150, 105, 0.1); color: var(--ok); }
    .pill.err { background: rgba(220, 38, 38, 0.1); color: var(--err); }
    .footer { padding: 14px 28px; font-family: ui-monospace, monospace; font-size: 12px; color: var(--muted); border-top: 1px solid #f1f5f9; display: flex; justify-content: space-between; }
    @media (max-width: 720px) { .grid { grid-template-columns: 1fr; } .col { border-right: none; border-bottom: 1px solid #f1f5f9; } }
  </style>
</head>
<body>
  <div class="container">
    <h1 id="headline">` + headline + `</h1>
    <div class="sub">Commercial paper demo API · live dependency and traffic monitoring</div>
    <div class="card">
      <div class="grid">
        <div class="col">
          <div class="label">Traffic</div>
          <div class="big" id="total-req">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
          <div class="row"><span>Successful</span><span id="success-count">` + fmt.Sprint(health.Traffic.SuccessCount) + `</span></div>
          <div class="row"><span>Failed</span><span id="failed-count">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
          <div class="row"><span>Success Rate</span><span id="success-rate">` + health.Traffic.SuccessRate + `%</span></div>
        </div>
        <div class="col">
          <div class="label">Runtime</div>
          <div class="big" id="uptime">--</div>
          <div class="row"><span>Heap In Use</span><span id="mem-heap">` + fmt.Sprint(health.Runtime.Memory.HeapInuseMB) + ` MB</span></div>
          <div class="row"><span>Allocated</span><span>` + fmt.Sprint(health.Runtime.Memory.AllocMB) + ` MB</span></div>
          <div class="row"><span>Platform</span><span style="font-size:11px">` + health.Runtime.Platform + `</span></div>
          <div class="row"><span>Go</span><span style="font-size:11px">` + health.Runtime.GoVersion + `</span></div>
        </div>
        <div class="col">
          <div class="label">Dependencies</div>
          <div class="row"><span>Postgres</span><span id="pill-database" class="pill ok"><span id="ping-database">--</span> ms</span></div>
          <div class="row"><span>Redis</span><span id="pill-redis" class="pill ok"><span id="ping-redis">--</span> ms</span></div>
        </div>
      </div>
      <div class="footer">
        <span>LAST INBOUND <b id="req-method">-</b> <span id="req-path"></span></span>
        <span id="time-display"></span>
      </div>
    </div>
  </div>
  <script>
    const fmtUptime = (s) => { const h = Math.floor(s / 3600); const m = Math.floor((s % 3600) / 60); return h + 'h ' + m + 'm ' + Math.floor(s % 60) + 's'; };
    const updateUI = (d) => {
      document.getElementById('time-display').innerText = new Date().toLocaleTimeString();
      document.getElementById('total-req').innerText = d.traffic.totalRequests;
      document.getElementById('success-count').innerText = d.traffic.successCount;
      document.getElementById('failed-count').innerText = d.traffic.failedCount;
      document.getElementById('success-rate').innerText = d.traffic.successRate + '%';
      document.getElementById('uptime').innerText = fmtUptime(d.runtime.uptimeSeconds);
      document.getElementById('mem-heap').innerText = d.runtime.memory.heapInuseMB + ' MB';
      if (d.traffic.lastRequest) {
        document.getElementById('req-method').innerText = d.traffic.lastRequest.method;
        document.getElementById('req-path').innerText = d.traffic.lastRequest.path;
      }
      for (const name of ['database', 'redis']) {
        const dep = d.dependencies[name];
        const pill = document.getElementById('pill-' + name);
        pill.className = 'pill ' + (dep.status === 'connected' ? 'ok' : 'err');
        document.getElementById('ping-' + name).innerText = dep.pingMs != null ? dep.pingMs : '?';
      }
      document.getElementById('headline').innerText = d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected';
    };
    updateUI(JSON.parse(` + "`" + jsonStr + "`" + `));
    setInterval(async () => { try { const r = await fetch('/health/json'); updateUI(await r.json()); } catch (e) {} }, 10000);
  </script>
</body>
</html>`
}
