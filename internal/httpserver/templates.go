package httpserver

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Traffic Prediction</title>
<style>
body { font-family: sans-serif; background: #1f2937; color: #f3f4f6; margin: 40px; }
.container { max-width: 960px; margin: 0 auto; }
.card { background: #374151; padding: 20px; border-radius: 8px; margin-top: 20px; }
.notice { background: #7f1d1d; padding: 12px; border-radius: 8px; margin-top: 20px; }
.failure { text-align: center; color: #fde68a; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 6px 12px; border: 1px solid #4b5563; text-align: left; }
button:disabled { opacity: 0.5; }
</style>
</head>
<body>
<div class="container">
<h1>Traffic Prediction</h1>

<form class="card" method="post" action="/submit" enctype="multipart/form-data">
  <label>CSV File</label>
  <div><input type="file" name="file" accept=".csv"> <span id="file-label">{{.FileLabel}}</span></div>
  <label>Time Interval</label>
  <div><input type="number" name="timeInterval" value="{{.TimeInterval}}" placeholder="Enter time interval"></div>
  <button type="submit"{{if .Loading}} disabled{{end}}>{{.SubmitLabel}}</button>
</form>

{{if .Notice}}
<div class="notice" id="notice"><p>{{.Notice}}</p></div>
{{end}}

{{if .ServerFailure}}
<div class="card failure" id="failure">
  <h3>Response Status: {{.Status}}</h3>
  <p>{{.Message}}</p>
</div>
{{end}}

{{if .HasResult}}
<div class="card" id="result">
  <h2>Predictions</h2>
  <a href="/download">Download CSV</a> | <a href="/download.xlsx">Download XLSX</a>
  <table>
    <thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>
    {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
    {{end}}
    </tbody>
  </table>
</div>
{{end}}
</div>
</body>
</html>
`
