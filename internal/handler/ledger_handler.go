package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pagwall/gateway-settlement/internal/dto"
	"github.com/pagwall/gateway-settlement/internal/repository"
)

type LedgerHandler struct {
	ledger *repository.LedgerRepository
	errs   *repository.ErrorLedgerRepository
}

func NewLedgerHandler(ledger *repository.LedgerRepository, errs *repository.ErrorLedgerRepository) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, errs: errs}
}

func (h *LedgerHandler) ListByStore(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid store id"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 50
	}

	entries, err := h.ledger.ListByStore(c.Request.Context(), storeID, pageSize, (page-1)*pageSize)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":    entries,
		"pagination": dto.Pagination{Page: page, PageSize: pageSize},
	})
}

func (h *LedgerHandler) Summary(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid store id"})
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, -1, 0)
	to := now

	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid from timestamp"})
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid to timestamp"})
			return
		}
	}

	summary, err := h.ledger.Summary(c.Request.Context(), storeID, from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *LedgerHandler) ListErrors(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit < 1 || limit > 1000 {
		limit = 100
	}

	entries, err := h.errs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": entries})
}
