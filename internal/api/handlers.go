package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/ledger"
)

type handlers struct {
	ledger    Ledger
	validator *requestValidator
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *handlers) addStudent(c echo.Context) error {
	req := new(addStudentRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, invalid(bindErrors(err)))
	}
	if fields := h.validator.Struct(req); fields != nil {
		return c.JSON(http.StatusBadRequest, invalid(fields))
	}

	ctx := c.Request().Context()
	adm, err := h.ledger.AddStudent(ctx, req.toLedger())
	switch {
	case errors.Is(err, ledger.ErrInvalidDate):
		return c.JSON(http.StatusBadRequest, invalid(map[string]string{"date": err.Error()}))
	case errors.Is(err, ledger.ErrInvalidStudent):
		return c.JSON(http.StatusBadRequest, invalid(map[string]string{"body": err.Error()}))
	case err != nil:
		common.LoggerFromContext(ctx).Error("Failed to add student", "error", err)
		return c.JSON(http.StatusInternalServerError, failure(msgAddFailed))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": msgStudentAdded,
		"adm_no":  adm.AdmNo,
		"row_idx": adm.RowIdx,
	})
}

func (h *handlers) listStudents(c echo.Context) error {
	ctx := c.Request().Context()
	students, err := h.ledger.ListStudents(ctx)
	if err != nil {
		common.LoggerFromContext(ctx).Error("Failed to load students", "error", err)
		return c.JSON(http.StatusInternalServerError, failure(msgStudentsFailed))
	}
	return c.JSON(http.StatusOK, students)
}

func (h *handlers) payFee(c echo.Context) error {
	req := new(payFeeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, invalidPayment(bindErrors(err)))
	}
	if fields := h.validator.Struct(req); fields != nil {
		return c.JSON(http.StatusBadRequest, invalidPayment(fields))
	}

	ctx := c.Request().Context()
	receipt, err := h.ledger.PayFee(ctx, req.toLedger())
	switch {
	case errors.Is(err, ledger.ErrInvalidDate):
		return c.JSON(http.StatusBadRequest, invalidPayment(map[string]string{"next_due": err.Error()}))
	case errors.Is(err, ledger.ErrInvalidPayment):
		return c.JSON(http.StatusBadRequest, invalidPayment(map[string]string{"body": err.Error()}))
	case err != nil:
		common.LoggerFromContext(ctx).Error("Failed to add fee data", "error", err)
		return c.JSON(http.StatusInternalServerError, failure(msgFeeFailed))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": msgFeeUpdated,
		"receipt": receipt,
	})
}

func (h *handlers) listFeeLogs(c echo.Context) error {
	ctx := c.Request().Context()
	logs, err := h.ledger.ListFeeLogs(ctx)
	if err != nil {
		common.LoggerFromContext(ctx).Error("Failed to load fee logs", "error", err)
		return c.JSON(http.StatusInternalServerError, failure(msgFeeLogsFailed))
	}
	return c.JSON(http.StatusOK, logs)
}

// bindErrors reports a body that could not be decoded at all.
func bindErrors(err error) map[string]string {
	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		if internal := herr.Internal; internal != nil {
			return map[string]string{"body": internal.Error()}
		}
		if m, ok := herr.Message.(string); ok {
			return map[string]string{"body": m}
		}
	}
	return map[string]string{"body": err.Error()}
}
