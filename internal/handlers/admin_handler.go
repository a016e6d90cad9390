package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jutorials/backend/internal/ledger"
	"github.com/jutorials/backend/internal/models"
	"github.com/jutorials/backend/internal/services/payment"
	"github.com/jutorials/backend/internal/services/withdrawal"
)

// AdminHandler handles admin review requests
type AdminHandler struct {
	store     ledger.Store
	approvals *withdrawal.ApprovalService
	payments  *payment.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store ledger.Store, approvals *withdrawal.ApprovalService, payments *payment.Service) *AdminHandler {
	return &AdminHandler{
		store:     store,
		approvals: approvals,
		payments:  payments,
	}
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListPendingWithdrawals lists withdrawal requests awaiting review
func (h *AdminHandler) ListPendingWithdrawals(c *gin.Context) {
	requests, err := h.store.ListPendingWithdrawals(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list withdrawals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": requests})
}

// ApproveWithdrawal approves a pending withdrawal and debits the balance
func (h *AdminHandler) ApproveWithdrawal(c *gin.Context) {
	request, err := h.approvals.Approve(c.Request.Context(), c.Param("id"), c.GetInt64("admin_id"))
	if err != nil {
		switch {
		case errors.Is(err, withdrawal.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, withdrawal.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already processed"})
		case errors.Is(err, withdrawal.ErrInsufficientBalance):
			c.JSON(http.StatusConflict, gin.H{"error": "balance no longer covers the requested amount; request rejected"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve withdrawal"})
		}
		return
	}
	c.JSON(http.StatusOK, request)
}

// RejectWithdrawal rejects a pending withdrawal with a reason
func (h *AdminHandler) RejectWithdrawal(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	request, err := h.approvals.Reject(c.Request.Context(), c.Param("id"), c.GetInt64("admin_id"), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, withdrawal.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		case errors.Is(err, withdrawal.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already processed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject withdrawal"})
		}
		return
	}
	c.JSON(http.StatusOK, request)
}

// ListPendingPayments lists registration payments awaiting review
func (h *AdminHandler) ListPendingPayments(c *gin.Context) {
	payments, err := h.store.ListPendingPayments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list payments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// ApprovePayment approves a registration payment and activates the account
func (h *AdminHandler) ApprovePayment(c *gin.Context) {
	pmt, err := h.payments.Approve(c.Request.Context(), c.Param("id"), c.GetInt64("admin_id"))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		case errors.Is(err, payment.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "payment already processed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve payment"})
		}
		return
	}
	c.JSON(http.StatusOK, pmt)
}

// RejectPayment rejects a registration payment with a reason
func (h *AdminHandler) RejectPayment(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}

	pmt, err := h.payments.Reject(c.Request.Context(), c.Param("id"), c.GetInt64("admin_id"), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		case errors.Is(err, payment.ErrAlreadyProcessed):
			c.JSON(http.StatusConflict, gin.H{"error": "payment already processed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject payment"})
		}
		return
	}
	c.JSON(http.StatusOK, pmt)
}

// GetAccount returns a student account with its commission history
func (h *AdminHandler) GetAccount(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
		return
	}

	account, err := h.store.GetAccount(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get account"})
		return
	}

	commissions, err := h.store.ListCommissionsByReferrer(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get commissions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account":     account,
		"commissions": commissions,
	})
}

// Stats returns review-queue and account counts
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	pendingWithdrawals, err := h.store.CountPendingWithdrawals(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}
	pendingPayments, err := h.store.CountPendingPayments(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}
	activeAccounts, err := h.store.CountAccounts(ctx, models.AccountStatusActive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}
	pendingAccounts, err := h.store.CountAccounts(ctx, models.AccountStatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pending_withdrawals": pendingWithdrawals,
		"pending_payments":    pendingPayments,
		"active_accounts":     activeAccounts,
		"pending_accounts":    pendingAccounts,
	})
}
