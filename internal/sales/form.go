package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"erp_sales/internal/logging"
)

var (
	// ErrFormClosed is returned when editing while no sale is being entered.
	ErrFormClosed = errors.New("the sale form is not open")
	// ErrLineNotFound is returned when editing a line that does not exist.
	ErrLineNotFound = errors.New("line not found")
	// ErrSubmitInProgress guards against a second submission while one is in flight.
	ErrSubmitInProgress = errors.New("a submission is already in progress")
)

// SubmitState tracks the submission state machine.
type SubmitState int

const (
	StateIdle SubmitState = iota
	StateValidating
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s SubmitState) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

func (s SubmitState) busy() bool {
	return s == StateValidating || s == StateSubmitting
}

// FormOptions configures a Form.
type FormOptions struct {
	// SellerID returns the logged-in seller, or "" when unknown.
	SellerID         func() string
	FallbackSellerID string
	Now              func() time.Time
}

// LineEdit carries raw form input for one line; nil fields are left untouched.
type LineEdit struct {
	Description *string
	Quantity    *string
	UnitPrice   *string
}

// FieldsEdit carries raw form input for the sale header; nil fields are left untouched.
type FieldsEdit struct {
	CustomerName      *string
	Advance           *string
	EventType         *string
	EventDate         *string
	Shift             *string
	PaymentMethod     *string
	Delivery          *bool
	DeliveryAddress   *string
	DeliveryReference *string
	MapsLink          *string
	Recipient         *string
	ContactPhone      *string
	Observations      *string
}

// Form owns the state of the new-sale screen: the draft, the customer cache loaded
// when it was opened and the submission state. All methods are safe for concurrent use.
type Form struct {
	mu      sync.Mutex
	service *Service
	opts    FormOptions
	logger  *zap.Logger

	open       bool
	generation int
	draft      *Draft
	cache      *CustomerCache
	masters    Masters

	state      SubmitState
	lastTicket string
	lastError  string
}

// NewForm creates a closed Form.
func NewForm(service *Service, opts FormOptions, logger *zap.Logger) *Form {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Form{
		service: service,
		opts:    opts,
		logger:  logging.OrNop(logger),
		cache:   NewCustomerCache(nil),
	}
}

// Open resets the draft, defaults the event date to today, loads the masters and adds
// one blank line. When the masters cannot be loaded the form stays open with an empty
// customer cache and the error is returned alongside the view. It fails with
// ErrSubmitInProgress while a submission is still waiting for the backend.
func (f *Form) Open(ctx context.Context) (View, error) {
	f.mu.Lock()
	if f.state.busy() {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, ErrSubmitInProgress
	}
	f.generation++
	gen := f.generation
	f.open = true
	f.draft = NewDraft()
	f.draft.EventDate = f.opts.Now().Format(time.DateOnly)
	f.draft.AddLine()
	f.cache = NewCustomerCache(nil)
	f.masters = Masters{}
	f.state = StateIdle
	f.lastTicket, f.lastError = "", ""
	f.mu.Unlock()

	masters, err := f.service.LoadMasters(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		// reabierto o cerrado mientras cargaba
		return f.viewLocked(), err
	}
	if err != nil {
		f.logger.Warn("masters unavailable, form opened without lists", zap.Error(err))
		return f.viewLocked(), fmt.Errorf("load lists: %w", err)
	}
	f.masters = *masters
	f.cache = NewCustomerCache(masters.Customers)
	if len(masters.EventTypes) > 0 {
		f.draft.EventType = masters.EventTypes[0]
	}
	if len(masters.PaymentMethods) > 0 {
		f.draft.PaymentMethod = masters.PaymentMethods[0]
	}
	return f.viewLocked(), nil
}

// Close discards the draft.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *Form) closeLocked() {
	f.open = false
	f.generation++
	f.draft = nil
}

// View returns the current projection of the form.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

// edit runs fn against the open draft and returns the recomputed view.
func (f *Form) edit(fn func(d *Draft) error) (View, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return f.viewLocked(), ErrFormClosed
	}
	if err := fn(f.draft); err != nil {
		return f.viewLocked(), err
	}
	return f.viewLocked(), nil
}

// AddLine appends a blank line.
func (f *Form) AddLine() (View, error) {
	return f.edit(func(d *Draft) error {
		d.AddLine()
		return nil
	})
}

// RemoveLine deletes a line; unknown ids are a no-op.
func (f *Form) RemoveLine(id int) (View, error) {
	return f.edit(func(d *Draft) error {
		d.RemoveLine(id)
		return nil
	})
}

// EditLine applies raw input to a line.
func (f *Form) EditLine(id int, e LineEdit) (View, error) {
	return f.edit(func(d *Draft) error {
		if _, ok := d.Line(id); !ok {
			return ErrLineNotFound
		}
		if e.Description != nil {
			d.SetDescription(id, *e.Description)
		}
		if e.Quantity != nil || e.UnitPrice != nil {
			d.ApplyInput(id, e.Quantity, e.UnitPrice)
		}
		return nil
	})
}

// UpdateFields applies raw input to the sale header. Nothing changes if the advance is negative.
func (f *Form) UpdateFields(e FieldsEdit) (View, error) {
	return f.edit(func(d *Draft) error {
		if e.Advance != nil {
			adv := parseOrZero(*e.Advance)
			if err := d.SetAdvance(adv); err != nil {
				return err
			}
		}
		set := func(dst *string, src *string) {
			if src != nil {
				*dst = *src
			}
		}
		set(&d.CustomerName, e.CustomerName)
		set(&d.EventType, e.EventType)
		set(&d.EventDate, e.EventDate)
		set(&d.Shift, e.Shift)
		set(&d.PaymentMethod, e.PaymentMethod)
		set(&d.DeliveryAddress, e.DeliveryAddress)
		set(&d.DeliveryReference, e.DeliveryReference)
		set(&d.MapsLink, e.MapsLink)
		set(&d.Recipient, e.Recipient)
		set(&d.ContactPhone, e.ContactPhone)
		set(&d.Observations, e.Observations)
		if e.Delivery != nil {
			d.Delivery = *e.Delivery
		}
		return nil
	})
}

// Submit validates the draft, sends it and returns the ticket id. Validation errors
// return before any network call. On success the draft is discarded and the form
// closes; on failure the draft is kept for a retry.
func (f *Form) Submit(ctx context.Context) (string, error) {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return "", ErrFormClosed
	}
	if f.state.busy() {
		f.mu.Unlock()
		return "", ErrSubmitInProgress
	}
	f.state = StateValidating
	if err := Validate(f.draft); err != nil {
		f.state = StateFailed
		f.lastError = err.Error()
		f.mu.Unlock()
		return "", err
	}
	payload := BuildPayload(f.draft, f.cache, f.sellerID())
	f.state = StateSubmitting
	gen := f.generation
	f.mu.Unlock()

	ticket, err := f.service.RegisterSale(ctx, payload)

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		// el formulario se cerró mientras se enviaba: el resultado no pertenece al nuevo borrador
		f.state = StateIdle
		f.logger.Warn("submission finished after the form was closed",
			zap.String("id_ticket", ticket), zap.Error(err))
		return ticket, err
	}
	if err != nil {
		f.state = StateFailed
		f.lastError = err.Error()
		return "", err
	}
	f.state = StateSucceeded
	f.lastTicket, f.lastError = ticket, ""
	f.closeLocked()
	return ticket, nil
}

// Acknowledge returns a finished submission to idle.
func (f *Form) Acknowledge() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSucceeded || f.state == StateFailed {
		f.state = StateIdle
	}
}

// State returns the submission state.
func (f *Form) State() SubmitState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) sellerID() string {
	if f.opts.SellerID != nil {
		if id := f.opts.SellerID(); id != "" {
			return id
		}
	}
	return f.opts.FallbackSellerID
}

// View is a read-only projection of the form for rendering.
type View struct {
	Open              bool             `json:"abierto"`
	Lines             []LineView       `json:"lineas"`
	CustomerName      string           `json:"cliente"`
	Advance           string           `json:"a_cuenta"`
	Total             string           `json:"total"`
	Balance           string           `json:"saldo"`
	BalanceLabel      string           `json:"saldo_etiqueta"`
	Paid              bool             `json:"pagado"`
	EventType         string           `json:"tipo_evento"`
	EventDate         string           `json:"fecha"`
	Shift             string           `json:"turno"`
	PaymentMethod     string           `json:"metodo_pago"`
	Delivery          bool             `json:"es_delivery"`
	DeliveryAddress   string           `json:"direccion"`
	DeliveryReference string           `json:"referencia"`
	MapsLink          string           `json:"link_maps"`
	Recipient         string           `json:"persona_recibe"`
	ContactPhone      string           `json:"celular_contacto"`
	Observations      string           `json:"observaciones"`
	EventTypes        []string         `json:"tipos_evento"`
	PaymentMethods    []string         `json:"metodos_pago"`
	Customers         []CustomerOption `json:"clientes"`
	SubmitState       string           `json:"estado_envio"`
	LastTicket        string           `json:"ultimo_ticket,omitempty"`
	LastError         string           `json:"ultimo_error,omitempty"`
}

// LineView is one rendered line.
type LineView struct {
	ID          int    `json:"id"`
	Description string `json:"descripcion"`
	Quantity    string `json:"cantidad"`
	UnitPrice   string `json:"precio"`
	PriceValid  bool   `json:"precio_valido"`
	Subtotal    string `json:"subtotal"`
}

// CustomerOption is an entry of the customer picker.
type CustomerOption struct {
	ID    string `json:"id"`
	Name  string `json:"nombre"`
	Label string `json:"etiqueta"`
}

func (f *Form) viewLocked() View {
	v := View{
		Open:           f.open,
		Lines:          []LineView{},
		EventTypes:     f.masters.EventTypes,
		PaymentMethods: f.masters.PaymentMethods,
		Customers:      []CustomerOption{},
		SubmitState:    f.state.String(),
		LastTicket:     f.lastTicket,
		LastError:      f.lastError,
		Total:          FormatAmount(decimal.Zero),
		Balance:        FormatAmount(decimal.Zero),
		Advance:        FormatAmount(decimal.Zero),
	}
	for _, c := range f.cache.All() {
		v.Customers = append(v.Customers, CustomerOption{ID: string(c.ID), Name: c.Name, Label: c.Label()})
	}
	if f.draft == nil {
		v.BalanceLabel = FormatAmount(decimal.Zero)
		return v
	}

	d := f.draft
	for _, l := range d.lines {
		v.Lines = append(v.Lines, LineView{
			ID:          l.ID,
			Description: l.Description,
			Quantity:    l.Quantity.String(),
			UnitPrice:   l.UnitPrice.String(),
			PriceValid:  l.PriceValid,
			Subtotal:    FormatAmount(l.Subtotal),
		})
	}
	b := d.Balance()
	v.CustomerName = d.CustomerName
	v.Advance = FormatAmount(d.Advance())
	v.Total = FormatAmount(d.Total())
	v.Balance = FormatAmount(b.Amount)
	v.BalanceLabel = b.Label()
	v.Paid = b.Paid
	v.EventType = d.EventType
	v.EventDate = d.EventDate
	v.Shift = d.Shift
	v.PaymentMethod = d.PaymentMethod
	v.Delivery = d.Delivery
	v.DeliveryAddress = d.DeliveryAddress
	v.DeliveryReference = d.DeliveryReference
	v.MapsLink = d.MapsLink
	v.Recipient = d.Recipient
	v.ContactPhone = d.ContactPhone
	v.Observations = d.Observations
	return v
}
