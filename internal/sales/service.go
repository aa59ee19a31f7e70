package sales

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"erp_sales/internal/gateway"
	"erp_sales/internal/logging"
)

// Remote actions of the sales module.
const (
	ActionRegisterSale = "registrarVenta"
	ActionMasters      = "obtenerDatosInicialesVentas"
	ActionDailyReport  = "obtenerReporteVentasDia"
	ActionTicketDetail = "obtenerDetalleTicket"
)

// ErrMalformedResponse is returned when a successful answer lacks the expected fields.
var ErrMalformedResponse = errors.New("unexpected response from the server")

// Service provides the sales module's remote operations.
type Service struct {
	gateway gateway.Caller
	logger  *zap.Logger
}

// NewService creates a new Service.
func NewService(gw gateway.Caller, logger *zap.Logger) *Service {
	return &Service{
		gateway: gw,
		logger:  logging.OrNop(logger),
	}
}

// DailyReport fetches today's KPIs and sales.
func (s *Service) DailyReport(ctx context.Context) (*DailyReport, error) {
	res := s.gateway.Call(ctx, ActionDailyReport, nil)
	if err := res.Err(); err != nil {
		return nil, err
	}
	var report DailyReport
	if err := res.Decode(&report); err != nil {
		s.logger.Error("decode daily report", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if report.Sales == nil {
		report.Sales = []SaleSummary{}
	}
	return &report, nil
}

// TicketDetail fetches the stored lines of a ticket.
func (s *Service) TicketDetail(ctx context.Context, ticketID string) ([]LineItemDetail, error) {
	res := s.gateway.Call(ctx, ActionTicketDetail, map[string]string{"id_ticket": ticketID})
	if err := res.Err(); err != nil {
		return nil, err
	}
	var body struct {
		Items []LineItemDetail `json:"items"`
	}
	if err := res.Decode(&body); err != nil {
		s.logger.Error("decode ticket detail", zap.String("id_ticket", ticketID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if body.Items == nil {
		body.Items = []LineItemDetail{}
	}
	return body.Items, nil
}

// LoadMasters fetches event types, payment methods and the customer list.
func (s *Service) LoadMasters(ctx context.Context) (*Masters, error) {
	res := s.gateway.Call(ctx, ActionMasters, nil)
	if err := res.Err(); err != nil {
		return nil, err
	}
	var body struct {
		Config struct {
			EventTypes     []string `json:"Tipo_Evento"`
			PaymentMethods []string `json:"Metodo_Pago"`
		} `json:"config"`
		Customers []Customer `json:"clientes"`
	}
	if err := res.Decode(&body); err != nil {
		s.logger.Error("decode masters", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	s.logger.Info("masters loaded",
		zap.Int("event_types", len(body.Config.EventTypes)),
		zap.Int("customers", len(body.Customers)),
	)
	return &Masters{
		EventTypes:     body.Config.EventTypes,
		PaymentMethods: body.Config.PaymentMethods,
		Customers:      body.Customers,
	}, nil
}

// RegisterSale submits the payload and returns the new ticket id.
func (s *Service) RegisterSale(ctx context.Context, p Payload) (string, error) {
	res := s.gateway.Call(ctx, ActionRegisterSale, p)
	if err := res.Err(); err != nil {
		s.logger.Error("failed to register sale",
			zap.String("cliente", p.Header.CustomerName),
			zap.Float64("total", p.Totals.Total),
			zap.Error(err),
		)
		return "", err
	}
	var body struct {
		Data struct {
			TicketID Text `json:"id_ticket"`
		} `json:"data"`
	}
	if err := res.Decode(&body); err != nil || body.Data.TicketID == "" {
		// success=true: la venta quedó registrada aunque no sepamos el ticket.
		// Reintentar duplicaría la venta.
		s.logger.Warn("sale registered without ticket id", zap.Error(err))
		return "", nil
	}
	s.logger.Info("sale registered",
		zap.String("id_ticket", body.Data.TicketID.String()),
		zap.String("id_cliente", p.Header.CustomerID),
		zap.Bool("cliente_nuevo", IsPlaceholderID(p.Header.CustomerID)),
		zap.Float64("total", p.Totals.Total),
	)
	return body.Data.TicketID.String(), nil
}
