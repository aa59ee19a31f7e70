package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"erp_sales/internal/gateway"
	"erp_sales/internal/sales"
	"erp_sales/internal/session"
)

const (
	actionTestConnection = "testConexion"
	userKey              = "erp_user"
)

// erpHandler implements the HTTP handlers of the front end.
type erpHandler struct {
	gateway gateway.Caller
	session *session.Store
	sales   *sales.Service
	form    *sales.Form
	logger  *zap.Logger
}

// NewERPHandler creates a new handler.
func NewERPHandler(gw gateway.Caller, st *session.Store, svc *sales.Service, form *sales.Form, logger *zap.Logger) *erpHandler {
	return &erpHandler{
		gateway: gw,
		session: st,
		sales:   svc,
		form:    form,
		logger:  logger,
	}
}

// formValue is raw text from a form input; JSON numbers and strings are both accepted
// so that non-numeric input reaches the editor untouched.
type formValue string

func (v *formValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case string(b) == "null":
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = formValue(s)
	default:
		*v = formValue(b)
	}
	return nil
}

func (v *formValue) ptr() *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) int {
	var gwErr *gateway.Error
	switch {
	case errors.Is(err, session.ErrMissingCredentials), errors.Is(err, sales.ErrNegativeAdvance):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, sales.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, sales.ErrFormClosed),
		errors.Is(err, sales.ErrSubmitInProgress),
		errors.Is(err, session.ErrLogoutNotConfirmed):
		return http.StatusConflict
	case sales.IsValidation(err):
		return http.StatusUnprocessableEntity
	case gateway.IsTransport(err):
		return http.StatusBadGateway
	case errors.As(err, &gwErr):
		return http.StatusBadRequest
	case errors.Is(err, sales.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *erpHandler) fail(c *gin.Context, err error, extra gin.H) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	body := gin.H{"error": err.Error()}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// requireSession gates the sales screens. Pages redirect to the login, JSON answers 401.
func (h *erpHandler) requireSession(page bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := h.session.CurrentUser()
		if !ok {
			if page {
				c.Redirect(http.StatusFound, "/login")
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": session.ErrNoSession.Error(), "login_required": true})
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

func (h *erpHandler) handleStatus(ctx *gin.Context) {
	res := h.gateway.Call(ctx.Request.Context(), actionTestConnection, nil)
	switch {
	case res.Success:
		var body struct {
			Mensaje string `json:"mensaje"`
		}
		if err := res.Decode(&body); err != nil {
			h.logger.Debug("status check answer without message", zap.Error(err))
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "online", "message": body.Mensaje})
	case res.Kind == gateway.KindBackend:
		ctx.JSON(http.StatusOK, gin.H{"status": "error", "message": res.Error})
	default:
		ctx.JSON(http.StatusOK, gin.H{"status": "offline", "message": res.Error})
	}
}

func (h *erpHandler) handleLogin(ctx *gin.Context) {
	var req struct {
		Username string `json:"usuario"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind login request", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	res, err := h.session.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) && gwErr.Kind == gateway.KindBackend {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		h.fail(ctx, err, nil)
		return
	}

	body := gin.H{
		"usuario": res.User.Profile,
		"label":   res.User.Label(),
	}
	if res.Notice != "" {
		body["aviso"] = res.Notice
	}
	ctx.JSON(http.StatusOK, body)
}

func (h *erpHandler) handleLogout(ctx *gin.Context) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := h.session.Logout(req.Confirm); err != nil {
		h.fail(ctx, err, nil)
		return
	}
	// el borrador pertenece al usuario que sale
	h.form.Close()
	ctx.JSON(http.StatusOK, gin.H{"message": "session closed"})
}

func (h *erpHandler) handleSession(ctx *gin.Context) {
	u, ok := h.session.CurrentUser()
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": session.ErrNoSession.Error(), "login_required": true})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"usuario": u.Profile, "label": u.Label()})
}

func (h *erpHandler) handleDailyReport(ctx *gin.Context) {
	report, err := h.sales.DailyReport(ctx.Request.Context())
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, reportJSON(report))
}

func reportJSON(r *sales.DailyReport) gin.H {
	return gin.H{
		"kpis": gin.H{
			"total":     sales.FormatMoney(r.KPIs.Total),
			"tickets":   r.KPIs.Tickets,
			"pendiente": sales.FormatMoney(r.KPIs.Pending),
		},
		"ventas": r.Sales,
	}
}

func (h *erpHandler) handleTicketDetail(ctx *gin.Context) {
	items, err := h.sales.TicketDetail(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		h.fail(ctx, err, nil)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id_ticket": ctx.Param("id"), "items": items})
}

func (h *erpHandler) handleOpenForm(ctx *gin.Context) {
	view, err := h.form.Open(ctx.Request.Context())
	if errors.Is(err, sales.ErrSubmitInProgress) {
		h.fail(ctx, err, gin.H{"venta": view})
		return
	}
	body := gin.H{"venta": view}
	if err != nil {
		// el formulario queda abierto sin listas
		body["aviso"] = err.Error()
	}
	ctx.JSON(http.StatusOK, body)
}

func (h *erpHandler) handleGetForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"venta": h.form.View()})
}

func (h *erpHandler) handleCloseForm(ctx *gin.Context) {
	h.form.Close()
	ctx.JSON(http.StatusOK, gin.H{"venta": h.form.View()})
}

func (h *erpHandler) respondView(ctx *gin.Context, view sales.View, err error) {
	if err != nil {
		h.fail(ctx, err, gin.H{"venta": view})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"venta": view})
}

func (h *erpHandler) handleAddLine(ctx *gin.Context) {
	view, err := h.form.AddLine()
	h.respondView(ctx, view, err)
}

func lineID(ctx *gin.Context) (int, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid line id"})
		return 0, false
	}
	return id, true
}

func (h *erpHandler) handleEditLine(ctx *gin.Context) {
	id, ok := lineID(ctx)
	if !ok {
		return
	}
	var req struct {
		Description *string    `json:"descripcion"`
		Quantity    *formValue `json:"cantidad"`
		UnitPrice   *formValue `json:"precio"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind line edit", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	view, err := h.form.EditLine(id, sales.LineEdit{
		Description: req.Description,
		Quantity:    req.Quantity.ptr(),
		UnitPrice:   req.UnitPrice.ptr(),
	})
	h.respondView(ctx, view, err)
}

func (h *erpHandler) handleRemoveLine(ctx *gin.Context) {
	id, ok := lineID(ctx)
	if !ok {
		return
	}
	view, err := h.form.RemoveLine(id)
	h.respondView(ctx, view, err)
}

func (h *erpHandler) handleUpdateFields(ctx *gin.Context) {
	var req struct {
		CustomerName      *string    `json:"cliente"`
		Advance           *formValue `json:"a_cuenta"`
		EventType         *string    `json:"tipo_evento"`
		EventDate         *string    `json:"fecha"`
		Shift             *string    `json:"turno"`
		PaymentMethod     *string    `json:"metodo_pago"`
		Delivery          *bool      `json:"es_delivery"`
		DeliveryAddress   *string    `json:"direccion"`
		DeliveryReference *string    `json:"referencia"`
		MapsLink          *string    `json:"link_maps"`
		Recipient         *string    `json:"persona_recibe"`
		ContactPhone      *string    `json:"celular_contacto"`
		Observations      *string    `json:"observaciones"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("failed to bind sale fields", zap.Error(err))
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	view, err := h.form.UpdateFields(sales.FieldsEdit{
		CustomerName:      req.CustomerName,
		Advance:           req.Advance.ptr(),
		EventType:         req.EventType,
		EventDate:         req.EventDate,
		Shift:             req.Shift,
		PaymentMethod:     req.PaymentMethod,
		Delivery:          req.Delivery,
		DeliveryAddress:   req.DeliveryAddress,
		DeliveryReference: req.DeliveryReference,
		MapsLink:          req.MapsLink,
		Recipient:         req.Recipient,
		ContactPhone:      req.ContactPhone,
		Observations:      req.Observations,
	})
	h.respondView(ctx, view, err)
}

// handleSubmit registers the sale. On success the dashboard data is refreshed in the
// same answer; a failing refresh does not undo the sale.
func (h *erpHandler) handleSubmit(ctx *gin.Context) {
	ticket, err := h.form.Submit(ctx.Request.Context())
	if err != nil {
		h.fail(ctx, err, gin.H{"venta": h.form.View()})
		return
	}
	h.form.Acknowledge()

	body := gin.H{"id_ticket": ticket, "message": "sale registered"}
	if report, err := h.sales.DailyReport(ctx.Request.Context()); err == nil {
		body["reporte"] = reportJSON(report)
	} else {
		h.logger.Warn("dashboard refresh after sale failed", zap.Error(err))
	}
	ctx.JSON(http.StatusCreated, body)
}
