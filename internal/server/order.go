package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/kudamusaisiwa/royalprecast/internal/order/domain"
	paymentdomain "github.com/kudamusaisiwa/royalprecast/internal/payment/domain"
	"github.com/kudamusaisiwa/royalprecast/pkg/db/pagination"
	"github.com/kudamusaisiwa/royalprecast/pkg/money"
)

type lineItemRequest struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type createOrderRequest struct {
	CustomerID      string            `json:"customer_id"`
	Items           []lineItemRequest `json:"items"`
	DeliveryMethod  string            `json:"delivery_method"`
	DeliveryAddress string            `json:"delivery_address"`
	ExpectedDate    string            `json:"expected_date"`
	Notes           string            `json:"notes"`
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	expectedDate, err := parseOptionalTime(req.ExpectedDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("expected_date", "invalid_expected_date", "invalid expected_date"))
		return
	}

	items := make([]orderdomain.LineItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, orderdomain.LineItemInput{
			ProductID:   strings.TrimSpace(item.ProductID),
			ProductName: strings.TrimSpace(item.ProductName),
			Quantity:    item.Quantity,
			UnitPrice:   money.FromFloat(item.UnitPrice),
		})
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		CustomerID:      strings.TrimSpace(req.CustomerID),
		Items:           items,
		DeliveryMethod:  strings.TrimSpace(req.DeliveryMethod),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		ExpectedDate:    expectedDate,
		Notes:           req.Notes,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type paymentRequest struct {
	Amount    float64 `json:"amount"`
	Method    string  `json:"method"`
	Reference string  `json:"reference"`
	Notes     string  `json:"notes"`
}

type changeOrderStatusRequest struct {
	Status       string          `json:"status"`
	Acknowledged bool            `json:"acknowledged"`
	Payment      *paymentRequest `json:"payment"`
}

func (s *Server) ChangeOrderStatus(c *gin.Context) {
	var req changeOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	changeReq := orderdomain.ChangeStatusRequest{
		OrderID:      strings.TrimSpace(c.Param("id")),
		NewStatus:    orderdomain.OrderStatus(strings.TrimSpace(req.Status)),
		Acknowledged: req.Acknowledged,
	}
	if req.Payment != nil {
		changeReq.Payment = &orderdomain.PaymentInput{
			Amount:    money.FromFloat(req.Payment.Amount),
			Method:    paymentdomain.Method(strings.TrimSpace(req.Payment.Method)),
			Reference: strings.TrimSpace(req.Payment.Reference),
			Notes:     req.Payment.Notes,
		}
	}

	resp, err := s.orderSvc.ChangeStatus(c.Request.Context(), changeReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateOrderRequest struct {
	DeliveryMethod  *string           `json:"delivery_method"`
	DeliveryAddress *string           `json:"delivery_address"`
	ExpectedDate    string            `json:"expected_date"`
	Items           []lineItemRequest `json:"items"`
	AppendNote      string            `json:"append_note"`
}

func (s *Server) UpdateOrder(c *gin.Context) {
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	expectedDate, err := parseOptionalTime(req.ExpectedDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("expected_date", "invalid_expected_date", "invalid expected_date"))
		return
	}

	var items []orderdomain.LineItemInput
	for _, item := range req.Items {
		items = append(items, orderdomain.LineItemInput{
			ProductID:   strings.TrimSpace(item.ProductID),
			ProductName: strings.TrimSpace(item.ProductName),
			Quantity:    item.Quantity,
			UnitPrice:   money.FromFloat(item.UnitPrice),
		})
	}

	resp, err := s.orderSvc.Update(c.Request.Context(), orderdomain.UpdateOrderRequest{
		OrderID:         strings.TrimSpace(c.Param("id")),
		DeliveryMethod:  req.DeliveryMethod,
		DeliveryAddress: req.DeliveryAddress,
		ExpectedDate:    expectedDate,
		Items:           items,
		AppendNote:      req.AppendNote,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	if err := s.orderSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) GetOrderByID(c *gin.Context) {
	resp, err := s.orderSvc.GetByID(c.Request.Context(), orderdomain.GetOrderRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status      string `form:"status"`
		CustomerID  string `form:"customer_id"`
		CreatedBy   string `form:"created_by"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}

	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrderRequest{
		Pagination:  query.Pagination,
		Status:      strings.TrimSpace(query.Status),
		CustomerID:  strings.TrimSpace(query.CustomerID),
		CreatedBy:   strings.TrimSpace(query.CreatedBy),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderPaymentStatus(c *gin.Context) {
	status, err := s.orderSvc.PaymentStatus(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"payment_status": status}})
}

func (s *Server) GetOrderTotalPaid(c *gin.Context) {
	var query struct {
		From string `form:"from"`
		To   string `form:"to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var from, to *time.Time
	var err error
	if from, err = parseOptionalTime(query.From, false); err != nil {
		AbortWithError(c, newValidationError("from", "invalid_from", "invalid from"))
		return
	}
	if to, err = parseOptionalTime(query.To, true); err != nil {
		AbortWithError(c, newValidationError("to", "invalid_to", "invalid to"))
		return
	}

	total, err := s.paymentSvc.TotalPaid(c.Request.Context(), strings.TrimSpace(c.Param("id")), from, to)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"total_paid": total}})
}
