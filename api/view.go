package api

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"erp_sales/internal/sales"
	"erp_sales/internal/session"
)

// emptySalesMessage is the placeholder row when nothing was sold today.
const emptySalesMessage = "No hay ventas registradas hoy."

// badgeClass picks the status badge color of a dashboard row.
func badgeClass(status string) string {
	switch status {
	case "Pagado":
		return "bg-success"
	case "Pendiente":
		return "bg-warning text-dark"
	case "Anulado":
		return "bg-danger"
	default:
		return "bg-secondary"
	}
}

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"badge": badgeClass,
	"money": sales.FormatMoney,
}).Parse(`
{{define "login.html"}}<!doctype html>
<html lang="es"><head><meta charset="utf-8"><title>ERP - Ingresar</title></head>
<body>
<div id="login-overlay">
  <input id="loginUser" placeholder="Usuario">
  <input id="loginPass" type="password" placeholder="Contraseña">
  <button id="btnLogin" onclick="iniciarSesion()">INGRESAR</button>
  <div id="loginError"></div>
</div>
<script>
async function iniciarSesion() {
  const btn = document.getElementById("btnLogin");
  btn.disabled = true;
  const r = await fetch("/api/login", {method: "POST", headers: {"Content-Type": "application/json"},
    body: JSON.stringify({usuario: document.getElementById("loginUser").value, password: document.getElementById("loginPass").value})});
  const d = await r.json();
  btn.disabled = false;
  if (!r.ok) { document.getElementById("loginError").innerText = d.error; return; }
  if (d.aviso) alert(d.aviso);
  location.href = "/ventas";
}
</script>
</body></html>{{end}}

{{define "ventas.html"}}<!doctype html>
<html lang="es"><head><meta charset="utf-8"><title>ERP - Ventas</title></head>
<body>
<aside id="sidebar"><span id="lblUsuarioActual">{{.User}}</span></aside>
<main id="view-ventas-arzuka">
  <div id="kpiVentasHoy">{{.Total}}</div>
  <div id="kpiTicketsHoy">{{.Tickets}}</div>
  <div id="kpiPendienteHoy">{{.Pending}}</div>
  <table><tbody id="tablaVentasBody">
  {{- if .Error}}
    <tr><td colspan="6" class="text-center text-danger py-4">Error: {{.Error}}</td></tr>
  {{- else if not .Sales}}
    <tr><td colspan="6" class="text-center text-muted py-4">{{.Empty}}</td></tr>
  {{- else}}{{range .Sales}}
    <tr>
      <td class="fw-bold text-primary">{{.Ticket}}</td>
      <td>{{.Date}}</td>
      <td>{{.Customer}}</td>
      <td class="fw-bold">{{money .Total}}</td>
      <td><span class="badge {{badge .Status}}">{{.Status}}</span></td>
      <td><a href="/api/ventas/tickets/{{.Ticket}}" title="Ver detalle">ver</a></td>
    </tr>
  {{- end}}{{end}}
  </tbody></table>
</main>
</body></html>{{end}}
`))

// dashboardPage is the data behind ventas.html.
type dashboardPage struct {
	User    string
	Total   string
	Tickets int
	Pending string
	Sales   []sales.SaleSummary
	Empty   string
	Error   string
}

func (h *erpHandler) handleHome(ctx *gin.Context) {
	if _, ok := h.session.CurrentUser(); ok {
		ctx.Redirect(http.StatusFound, "/ventas")
		return
	}
	ctx.Redirect(http.StatusFound, "/login")
}

func (h *erpHandler) handleLoginPage(ctx *gin.Context) {
	if _, ok := h.session.CurrentUser(); ok {
		ctx.Redirect(http.StatusFound, "/ventas")
		return
	}
	ctx.HTML(http.StatusOK, "login.html", nil)
}

func (h *erpHandler) handleDashboardPage(ctx *gin.Context) {
	page := dashboardPage{Empty: emptySalesMessage}
	if u, ok := ctx.Get(userKey); ok {
		page.User = u.(*session.User).Label()
	}

	report, err := h.sales.DailyReport(ctx.Request.Context())
	if err != nil {
		h.logger.Warn("dashboard load failed", zap.Error(err))
		page.Error = err.Error()
		report = &sales.DailyReport{}
	}
	page.Total = sales.FormatMoney(report.KPIs.Total)
	page.Tickets = report.KPIs.Tickets
	page.Pending = sales.FormatMoney(report.KPIs.Pending)
	page.Sales = report.Sales

	ctx.HTML(http.StatusOK, "ventas.html", page)
}
