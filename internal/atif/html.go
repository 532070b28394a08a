package atif

import (
	"bytes"
	"encoding/json"
	"html/template"
)

const htmlTemplateSrc = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem; background: #111; color: #ddd; }
.step { border-left: 3px solid #444; padding: 0.5rem 1rem; margin-bottom: 0.75rem; }
.step.user { border-color: #5b8; }
.step.agent { border-color: #59d; }
.step.system { border-color: #d95; }
.meta { color: #888; font-size: 0.8em; }
pre { white-space: pre-wrap; word-break: break-word; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div id="root"></div>
<script id="trajectory-data" type="application/json">{{.TrajectoryJSON}}</script>
<script>
const traj = JSON.parse(document.getElementById("trajectory-data").textContent);
const root = document.getElementById("root");
for (const step of traj.steps) {
  const div = document.createElement("div");
  div.className = "step " + step.source;
  const meta = document.createElement("div");
  meta.className = "meta";
  meta.textContent = "#" + step.step_id + " " + step.source + " " + step.timestamp;
  const body = document.createElement("pre");
  body.textContent = step.message || "";
  div.appendChild(meta);
  div.appendChild(body);
  root.appendChild(div);
}
</script>
</body>
</html>
`

// RenderHTML renders a trajectory as a standalone, dependency-free HTML
// document for manual archivist review. It is a thin, static export: no
// layout engine or interactivity beyond a few lines of inline JS.
func RenderHTML(t *Trajectory) ([]byte, error) {
	tmpl, err := template.New("trajectory").Parse(htmlTemplateSrc)
	if err != nil {
		return nil, err
	}

	trajJSON, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"Title":          t.Agent.Name + " — " + t.SessionID,
		"TrajectoryJSON": template.JS(trajJSON), //nolint:gosec // data originates from our own validated trajectory store
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
