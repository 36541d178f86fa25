package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/Astemirdum/lending-service/lending/internal/errs"
	"github.com/Astemirdum/lending-service/lending/internal/model"
	"github.com/Astemirdum/lending-service/pkg/auth"
	md "github.com/Astemirdum/lending-service/pkg/middleware"
	"github.com/Astemirdum/lending-service/pkg/validate"
	_ "github.com/Astemirdum/lending-service/swagger"
)

type Handler struct {
	lendingSvc LendingService
	log        *zap.Logger
}

func New(lendingSvc LendingService, log *zap.Logger) *Handler {
	return &Handler{
		lendingSvc: lendingSvc,
		log:        log.Named("handler"),
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS   = 10
		apiRPS    = 100
		burst     = 20
		expiresIn = 3 * time.Minute
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPost},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS, burst, expiresIn))
	base.GET("/manage/health", h.Health)
	base.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig(h.log)),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS, burst, expiresIn),
		md.AuthContext,
	)

	api.GET("/books/:bookUid", h.GetBook)

	api.POST("/borrowings", h.BorrowBook)
	api.GET("/borrowings", h.GetBorrowingHistory)
	api.POST("/borrowings/:bookUid/return", h.ReturnBook)

	api.GET("/fines", h.GetFines)
	api.POST("/fines/:fineUid/pay", h.PayFine)
	api.GET("/payments", h.GetPaymentHistory)

	api.POST("/reminders/scan", h.ScanReminders, md.RequireRole(auth.RoleAdmin))

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// httpError maps service error kinds onto status codes.
func httpError(err error) *echo.HTTPError {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, errs.ErrPolicyViolation):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrInvalidStatus):
		code = http.StatusBadRequest
	}
	return echo.NewHTTPError(code, err.Error())
}

func currentUser(c echo.Context) (auth.User, error) {
	user, err := auth.GetUser(c.Request().Context())
	if err != nil {
		return auth.User{}, echo.NewHTTPError(http.StatusUnauthorized, errs.ErrUserName.Error())
	}
	return user, nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, name+" is invalid")
	}
	return id, nil
}

// GetBook
// @Summary book availability
// @Tags books
// @Produce json
// @Param bookUid path string true "book uid"
// @Success 200 {object} model.Book
// @Failure 404 {object} echo.HTTPError
// @Router /books/{bookUid} [get]
func (h *Handler) GetBook(c echo.Context) error {
	bookUid, err := uuidParam(c, "bookUid")
	if err != nil {
		return err
	}
	book, err := h.lendingSvc.GetBook(c.Request().Context(), bookUid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, book)
}

// BorrowBook
// @Summary borrow a copy
// @Tags borrowings
// @Accept json
// @Produce json
// @Param X-User-Name header string true "user"
// @Param request body model.BorrowRequest true "book to borrow"
// @Success 201 {object} model.Borrowing
// @Failure 404,409,422 {object} echo.HTTPError
// @Router /borrowings [post]
func (h *Handler) BorrowBook(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.UserID, req.UserEmail = user.Name, user.Email

	borrowing, err := h.lendingSvc.BorrowBook(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, borrowing)
}

// ReturnBook
// @Summary return the caller's copy of a book
// @Tags borrowings
// @Produce json
// @Param X-User-Name header string true "user"
// @Param bookUid path string true "book uid"
// @Success 200 {object} model.ReturnResult
// @Failure 404 {object} echo.HTTPError
// @Router /borrowings/{bookUid}/return [post]
func (h *Handler) ReturnBook(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	bookUid, err := uuidParam(c, "bookUid")
	if err != nil {
		return err
	}

	res, err := h.lendingSvc.ReturnBook(c.Request().Context(), user.Name, bookUid)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// GetBorrowingHistory
// @Summary borrowing history, newest first
// @Tags borrowings
// @Produce json
// @Param X-User-Name header string true "user"
// @Param status query string false "active | returned | overdue"
// @Param page query int false "page" default(1)
// @Param size query int false "page size" default(10)
// @Success 200 {object} model.ListBorrowings
// @Failure 400 {object} echo.HTTPError
// @Router /borrowings [get]
func (h *Handler) GetBorrowingHistory(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var (
		status     string
		page, size int
	)
	if err := echo.QueryParamsBinder(c).
		String("status", &status).
		Int("page", &page).
		Int("size", &size).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	list, err := h.lendingSvc.GetBorrowingHistory(c.Request().Context(), model.HistoryFilter{
		UserID: user.Name,
		Status: model.BorrowStatus(status),
		Page:   page,
		Size:   size,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

// GetFines
// @Summary unpaid fines
// @Tags fines
// @Produce json
// @Param X-User-Name header string true "user"
// @Success 200 {object} model.ListFines
// @Router /fines [get]
func (h *Handler) GetFines(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	fines, err := h.lendingSvc.GetFines(c.Request().Context(), user.Name)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fines)
}

// PayFine
// @Summary pay a pending fine
// @Tags fines
// @Accept json
// @Produce json
// @Param X-User-Name header string true "user"
// @Param fineUid path string true "fine uid"
// @Param request body model.PayFineRequest true "payment method"
// @Success 200 {object} model.Fine
// @Failure 400,404 {object} echo.HTTPError
// @Router /fines/{fineUid}/pay [post]
func (h *Handler) PayFine(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	fineUid, err := uuidParam(c, "fineUid")
	if err != nil {
		return err
	}
	var req model.PayFineRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	fine, err := h.lendingSvc.PayFine(c.Request().Context(), user.Name, fineUid, req.PaymentMethod)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fine)
}

// GetPaymentHistory
// @Summary all fines of the caller
// @Tags fines
// @Produce json
// @Param X-User-Name header string true "user"
// @Param status query string false "PENDING | PAID | FAILED"
// @Success 200 {object} model.ListFines
// @Failure 400 {object} echo.HTTPError
// @Router /payments [get]
func (h *Handler) GetPaymentHistory(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	status := model.FineStatus(c.QueryParam("status"))

	fines, err := h.lendingSvc.GetPaymentHistory(c.Request().Context(), user.Name, status)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, fines)
}

type scanResponse struct {
	Count int `json:"count"`
}

// ScanReminders
// @Summary send due-tomorrow reminders now
// @Tags reminders
// @Produce json
// @Param X-User-Name header string true "user"
// @Param X-User-Role header string true "ADMIN"
// @Success 200 {object} scanResponse
// @Failure 403 {object} echo.HTTPError
// @Router /reminders/scan [post]
func (h *Handler) ScanReminders(c echo.Context) error {
	count, err := h.lendingSvc.ScanDueTomorrow(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, scanResponse{Count: count})
}
