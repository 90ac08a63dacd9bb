package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"shop_visit_app_go/db"
	"shop_visit_app_go/middleware"
	"shop_visit_app_go/models"
	"shop_visit_app_go/services"
)

// Editors is the shared registry of open visit editors, wired up in
// main before the server starts.
var Editors *services.EditorSessionManager

type startEditorRequest struct {
	CustomerID string `json:"customer_id"`
	VisitID    string `json:"visit_id"`
}

// StartEditorHandler opens an editor session, either resuming an
// existing visit or starting a fresh draft for a customer
func StartEditorHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var req startEditorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	var session *services.EditorSession
	var err error
	if req.VisitID != "" {
		session, err = Editors.OpenSession(user, req.VisitID)
	} else {
		session, err = Editors.StartSession(user, req.CustomerID)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	return c.JSON(http.StatusCreated, editorState(session))
}

// EditorStateHandler returns the current draft and checklist
func EditorStateHandler(c echo.Context) error {
	session, err := currentEditor(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, editorState(session))
}

// UpdateEditorHandler merges a partial field update into the draft.
// Persistence happens asynchronously behind debounce timers, so the
// response reflects in-memory state.
func UpdateEditorHandler(c echo.Context) error {
	session, err := currentEditor(c)
	if err != nil {
		return err
	}

	var updates services.FieldUpdate
	if err := c.Bind(&updates); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if err := session.Lifecycle.ApplyUpdate(updates); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, editorState(session))
}

// AdvanceSectionHandler validates a form section and moves past it
func AdvanceSectionHandler(c echo.Context) error {
	session, err := currentEditor(c)
	if err != nil {
		return err
	}

	section, err := strconv.Atoi(c.Param("section"))
	if err != nil || section < 0 || section >= services.SectionCount {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid section index")
	}

	if err := session.Lifecycle.AdvanceSection(section); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, editorState(session))
}

type signatureRequest struct {
	Signature  string `json:"signature"`
	SignerName string `json:"signer_name"`
}

// AttachSignatureHandler validates and attaches the signature payload
func AttachSignatureHandler(c echo.Context) error {
	session, err := currentEditor(c)
	if err != nil {
		return err
	}

	var req signatureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.SignerName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "signer name is required")
	}
	if _, err := services.DecodeSignatureDataURL(req.Signature); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updates := services.FieldUpdate{
		"signature":             req.Signature,
		"signature_signer_name": req.SignerName,
		"signature_date":        time.Now().UTC().Format(time.RFC3339),
	}
	if err := session.Lifecycle.ApplyUpdate(updates); err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, editorState(session))
}

// FlushEditorHandler forces a synchronous save of pending changes
func FlushEditorHandler(c echo.Context) error {
	session, err := currentEditor(c)
	if err != nil {
		return err
	}
	if err := session.Lifecycle.Flush(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, editorState(session))
}

// SubmitEditorHandler runs the submission gate and locks the report
func SubmitEditorHandler(c echo.Context) error {
	session, err := currentEditor(c)
	if err != nil {
		return err
	}

	visit, err := session.Lifecycle.Submit()
	if err != nil {
		if errors.Is(err, services.ErrVisitLocked) {
			return echo.NewHTTPError(http.StatusConflict, "Report has already been submitted")
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	services.LogAuditEvent(db.DB, auditContextFrom(c), models.AuditActionSubmit,
		"ShopVisit", visit.ID, visit.ShopName, "Visit report submitted", nil, visit)

	return c.JSON(http.StatusOK, echo.Map{"visit": visit})
}

// CloseEditorHandler flushes and releases the editor session
func CloseEditorHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if err := Editors.CloseSession(c.Param("id"), user.ID); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Editor session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func currentEditor(c echo.Context) (*services.EditorSession, error) {
	user := middleware.GetCurrentUser(c)
	session, err := Editors.Get(c.Param("id"), user.ID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Editor session not found")
	}
	return session, nil
}

func editorState(session *services.EditorSession) echo.Map {
	draft := session.Lifecycle.Draft()
	state := echo.Map{
		"session_id": session.ID,
		"visit":      draft,
		"checklist":  session.Lifecycle.Checklist(),
	}
	if savedAt := session.Lifecycle.LastSavedAt(); !savedAt.IsZero() {
		state["last_saved_at"] = savedAt
	}
	return state
}
