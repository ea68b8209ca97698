package refdata

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/Tobijimoh/trade-capture-system/pkg/response"
)

// Service maintains the reference data the booking engine validates against:
// books, counterparties and trade status names.
type Service struct {
	db *Database
}

// NewService creates a new reference data service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// GetDB exposes the underlying database for wiring into the booking engine
func (s *Service) GetDB() *Database {
	return s.db
}

func (s *Service) CreateBook(book *Book) error {
	book.Active = true
	if err := s.db.CreateBook(book); err != nil {
		return err
	}
	log.Info().Str("book", book.Name).Uint("id", book.ID).Msg("created book")
	return nil
}

func (s *Service) CreateCounterparty(cp *Counterparty) error {
	cp.Active = true
	if err := s.db.CreateCounterparty(cp); err != nil {
		return err
	}
	log.Info().Str("counterparty", cp.Name).Uint("id", cp.ID).Msg("created counterparty")
	return nil
}

// GinHandlers contains HTTP handlers for reference data endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

func (h *GinHandlers) ListBooksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		books, err := h.service.db.ListBooks()
		response.Handle(c, books, err)
	}
}

func (h *GinHandlers) CreateBookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var book Book
		if err := c.ShouldBindJSON(&book); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if book.Name == "" {
			response.BadRequest(c, "book name is required")
			return
		}

		err := h.service.CreateBook(&book)
		response.Handle(c, book, err)
	}
}

func (h *GinHandlers) DeactivateBookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid book id")
			return
		}

		if err := h.service.db.DeactivateBook(uint(id)); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "book deactivated"})
	}
}

func (h *GinHandlers) ListCounterpartiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cps, err := h.service.db.ListCounterparties()
		response.Handle(c, cps, err)
	}
}

func (h *GinHandlers) CreateCounterpartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var cp Counterparty
		if err := c.ShouldBindJSON(&cp); err != nil {
			response.BadRequest(c, err.Error())
			return
		}
		if cp.Name == "" {
			response.BadRequest(c, "counterparty name is required")
			return
		}

		err := h.service.CreateCounterparty(&cp)
		response.Handle(c, cp, err)
	}
}

func (h *GinHandlers) DeactivateCounterpartyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			response.BadRequest(c, "invalid counterparty id")
			return
		}

		if err := h.service.db.DeactivateCounterparty(uint(id)); err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"message": "counterparty deactivated"})
	}
}

func (h *GinHandlers) ListTradeStatusesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		statuses, err := h.service.db.ListTradeStatuses()
		response.Handle(c, statuses, err)
	}
}
