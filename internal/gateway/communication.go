package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lifelink/emergency-coordinator/internal/models"
	"github.com/lifelink/emergency-coordinator/internal/store"
	"go.uber.org/zap"
)

// HospitalListResponse wraps hospital cards
type HospitalListResponse struct {
	Data []models.HospitalCard `json:"data"`
}

// MessageEnvelope wraps a single message with a status line
type MessageEnvelope struct {
	Message string             `json:"message"`
	Data    models.MessageView `json:"data"`
}

// UpdateMessageRequest changes a message's status and optionally records a response
type UpdateMessageRequest struct {
	Status          string `json:"status"`
	ResponseMessage string `json:"responseMessage"`
	Response        *struct {
		RespondedBy string `json:"respondedBy"`
	} `json:"response"`
}

// ReplyRequest answers a message
type ReplyRequest struct {
	Status          string `json:"status"`
	ResponseMessage string `json:"responseMessage"`
}

// UpdateHospitalRequest replaces whichever capacity sections are present
type UpdateHospitalRequest struct {
	Beds      *models.Beds       `json:"beds"`
	Doctors   *[]models.Doctor   `json:"doctors"`
	Resources *[]models.Resource `json:"resources"`
}

// CommunicationStatus reports record counts for operators
type CommunicationStatus struct {
	Status        string         `json:"status"`
	HospitalCount int            `json:"hospitalCount"`
	MessageCount  int            `json:"messageCount"`
	Hospitals     []HospitalStub `json:"hospitals"`
}

// HospitalStub identifies a hospital and its owner
type HospitalStub struct {
	ID     string `json:"_id"`
	UserID string `json:"user"`
}

// findHospital resolves ref as a hospital id, then as an owning user id.
// With create set, a missing hospital is created for ref as the owner.
func (h *Handler) findHospital(ctx context.Context, ref string, create bool) (*models.Hospital, error) {
	hospital, err := h.store.GetHospital(ctx, ref)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return hospital, err
	}
	hospital, err = h.store.GetHospitalByUser(ctx, ref)
	if err == nil || !errors.Is(err, store.ErrNotFound) || !create {
		return hospital, err
	}
	h.logger.Info("creating hospital record for account", zap.String("user_id", ref))
	return h.store.EnsureHospital(ctx, ref)
}

// hospitalOwner returns the owning account, or nil when it no longer exists.
func (h *Handler) hospitalOwner(ctx context.Context, hospital *models.Hospital) (*models.User, error) {
	owner, err := h.store.GetUser(ctx, hospital.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return owner, err
}

// contactResolver expands hospital ids to contacts, caching lookups per request.
type contactResolver struct {
	h     *Handler
	ctx   context.Context
	cache map[string]models.HospitalContact
}

func (h *Handler) newContactResolver(ctx context.Context) *contactResolver {
	return &contactResolver{h: h, ctx: ctx, cache: make(map[string]models.HospitalContact)}
}

func (r *contactResolver) contact(hospitalID string) (models.HospitalContact, error) {
	if c, ok := r.cache[hospitalID]; ok {
		return c, nil
	}
	var owner *models.User
	hospital, err := r.h.store.GetHospital(r.ctx, hospitalID)
	switch {
	case err == nil:
		if owner, err = r.h.hospitalOwner(r.ctx, hospital); err != nil {
			return models.HospitalContact{}, err
		}
	case !errors.Is(err, store.ErrNotFound):
		return models.HospitalContact{}, err
	}
	c := models.NewHospitalContact(hospitalID, owner)
	r.cache[hospitalID] = c
	return c, nil
}

func (r *contactResolver) view(m *models.HospitalMessage) (models.MessageView, error) {
	from, err := r.contact(m.FromHospital)
	if err != nil {
		return models.MessageView{}, err
	}
	to, err := r.contact(m.ToHospital)
	if err != nil {
		return models.MessageView{}, err
	}
	return models.MessageView{HospitalMessage: *m, FromHospital: from, ToHospital: to}, nil
}

func (r *contactResolver) views(messages []*models.HospitalMessage) ([]models.MessageView, error) {
	out := make([]models.MessageView, 0, len(messages))
	for _, m := range messages {
		v, err := r.view(m)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// CommunicationDebugStatus godoc
// @Summary Communication record counts
// @Tags hospital-communication
// @Produce json
// @Success 200 {object} CommunicationStatus
// @Security BearerAuth
// @Router /hospital-communication/debug/status [get]
func (h *Handler) CommunicationDebugStatus(c *gin.Context) {
	ctx := c.Request.Context()
	hospitals, err := h.store.ListHospitals(ctx)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}
	count, err := h.store.CountMessages(ctx)
	if err != nil {
		h.storeFailure(c, err, "Message")
		return
	}

	stubs := make([]HospitalStub, 0, len(hospitals))
	for _, hosp := range hospitals {
		stubs = append(stubs, HospitalStub{ID: hosp.ID, UserID: hosp.UserID})
	}
	c.JSON(http.StatusOK, CommunicationStatus{
		Status:        "ok",
		HospitalCount: len(hospitals),
		MessageCount:  count,
		Hospitals:     stubs,
	})
}

// ListOtherHospitals godoc
// @Summary List peer hospitals
// @Description Every hospital except the caller's, as contact cards
// @Tags hospital-communication
// @Produce json
// @Param currentHospitalId path string true "Hospital or owner user ID"
// @Success 200 {object} HospitalListResponse
// @Security BearerAuth
// @Router /hospital-communication/list/{currentHospitalId} [get]
func (h *Handler) ListOtherHospitals(c *gin.Context) {
	ctx := c.Request.Context()
	current, err := h.findHospital(ctx, c.Param("currentHospitalId"), true)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}

	hospitals, err := h.store.ListHospitals(ctx)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}

	cards := make([]models.HospitalCard, 0, len(hospitals))
	for _, hosp := range hospitals {
		if hosp.ID == current.ID {
			continue
		}
		owner, err := h.hospitalOwner(ctx, hosp)
		if err != nil {
			h.storeFailure(c, err, "User")
			return
		}
		cards = append(cards, models.NewHospitalCard(hosp, owner))
	}
	c.JSON(http.StatusOK, HospitalListResponse{Data: cards})
}

// GetHospitalDetails godoc
// @Summary Hospital details
// @Tags hospital-communication
// @Produce json
// @Param hospitalId path string true "Hospital or owner user ID"
// @Success 200 {object} models.HospitalCard
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /hospital-communication/details/{hospitalId} [get]
func (h *Handler) GetHospitalDetails(c *gin.Context) {
	ctx := c.Request.Context()
	hospital, err := h.findHospital(ctx, c.Param("hospitalId"), false)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}
	owner, err := h.hospitalOwner(ctx, hospital)
	if err != nil {
		h.storeFailure(c, err, "User")
		return
	}
	c.JSON(http.StatusOK, models.NewHospitalCard(hospital, owner))
}

// SendMessage godoc
// @Summary Message another hospital
// @Description Request staff, doctors or resources from a peer hospital
// @Tags hospital-communication
// @Accept json
// @Produce json
// @Param request body models.SendMessageRequest true "Message"
// @Success 201 {object} MessageEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /hospital-communication/send-message [post]
func (h *Handler) SendMessage(c *gin.Context) {
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	if req.FromHospitalID == "" || req.ToHospitalID == "" || req.MessageType == "" ||
		strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Details) == "" {
		badRequest(c, "Missing required fields")
		return
	}
	if !models.ValidMessageType(req.MessageType) {
		badRequest(c, "messageType must be staff, doctor or resource")
		return
	}
	urgency := orDefault(req.UrgencyLevel, "medium")
	if !models.ValidMessageUrgency(urgency) {
		badRequest(c, "urgencyLevel must be low, medium, high or critical")
		return
	}

	ctx := c.Request.Context()
	from, err := h.findHospital(ctx, req.FromHospitalID, false)
	if err != nil {
		h.storeFailure(c, err, "Sending hospital")
		return
	}
	to, err := h.findHospital(ctx, req.ToHospitalID, false)
	if err != nil {
		h.storeFailure(c, err, "Receiving hospital")
		return
	}

	msg := &models.HospitalMessage{
		FromHospital: from.ID,
		ToHospital:   to.ID,
		MessageType:  req.MessageType,
		Subject:      req.Subject,
		Details:      req.Details,
		RequestDetails: models.RequestDetails{
			StaffCount:       req.StaffCount,
			Specialization:   req.Specialization,
			ResourceName:     req.ResourceName,
			ResourceQuantity: req.ResourceQuantity,
			UrgencyLevel:     urgency,
			PreferredDate:    req.PreferredDate,
			Duration:         req.Duration,
		},
		Status: models.MessagePending,
	}
	if err := h.store.CreateMessage(ctx, msg); err != nil {
		h.storeFailure(c, err, "Message")
		return
	}

	view, err := h.newContactResolver(ctx).view(msg)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}
	h.logger.Info("hospital message sent",
		zap.String("message_id", msg.ID),
		zap.String("from", from.ID),
		zap.String("to", to.ID),
		zap.String("type", msg.MessageType),
	)
	c.JSON(http.StatusCreated, MessageEnvelope{Message: "Message sent successfully", Data: view})
}

// hospitalRefs lists the ids a hospital's messages may be filed under.
func hospitalRefs(hospital *models.Hospital, ref string) []string {
	if ref == hospital.ID {
		return []string{hospital.ID}
	}
	return []string{hospital.ID, ref}
}

// GetReceivedMessages godoc
// @Summary Inbox
// @Description Messages received by a hospital, newest first
// @Tags hospital-communication
// @Produce json
// @Param hospitalId path string true "Hospital or owner user ID"
// @Success 200 {array} models.MessageView
// @Security BearerAuth
// @Router /hospital-communication/messages/{hospitalId} [get]
func (h *Handler) GetReceivedMessages(c *gin.Context) {
	ctx := c.Request.Context()
	ref := c.Param("hospitalId")
	hospital, err := h.findHospital(ctx, ref, true)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}

	messages, err := h.store.ListMessagesTo(ctx, hospitalRefs(hospital, ref)...)
	if err != nil {
		h.storeFailure(c, err, "Message")
		return
	}
	views, err := h.newContactResolver(ctx).views(messages)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetSentMessages godoc
// @Summary Outbox
// @Description Messages sent by a hospital, newest first
// @Tags hospital-communication
// @Produce json
// @Param hospitalId path string true "Hospital or owner user ID"
// @Success 200 {array} models.MessageView
// @Security BearerAuth
// @Router /hospital-communication/sent-messages/{hospitalId} [get]
func (h *Handler) GetSentMessages(c *gin.Context) {
	ctx := c.Request.Context()
	ref := c.Param("hospitalId")
	ids := []string{ref}
	hospital, err := h.findHospital(ctx, ref, false)
	switch {
	case err == nil:
		ids = hospitalRefs(hospital, ref)
	case !errors.Is(err, store.ErrNotFound):
		h.storeFailure(c, err, "Hospital")
		return
	}

	messages, err := h.store.ListMessagesFrom(ctx, ids...)
	if err != nil {
		h.storeFailure(c, err, "Message")
		return
	}
	views, err := h.newContactResolver(ctx).views(messages)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}
	c.JSON(http.StatusOK, views)
}

// UpdateMessage godoc
// @Summary Update message status
// @Tags hospital-communication
// @Accept json
// @Produce json
// @Param messageId path string true "Message ID"
// @Param request body UpdateMessageRequest true "Status"
// @Success 200 {object} MessageEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /hospital-communication/message/{messageId} [patch]
func (h *Handler) UpdateMessage(c *gin.Context) {
	var req UpdateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	if !models.ValidMessageStatus(req.Status) {
		badRequest(c, "status must be pending, approved, rejected or resolved")
		return
	}

	var response *models.MessageResponse
	if req.Response != nil {
		callerID, _ := currentUser(c)
		response = &models.MessageResponse{
			Message:      req.ResponseMessage,
			ResponseDate: h.now().UTC(),
			RespondedBy:  orDefault(req.Response.RespondedBy, callerID),
		}
	}
	h.applyMessageUpdate(c, req.Status, response, "Message updated successfully")
}

// ReplyToMessage godoc
// @Summary Reply to a message
// @Description Record a response and set the status, approved by default
// @Tags hospital-communication
// @Accept json
// @Produce json
// @Param messageId path string true "Message ID"
// @Param request body ReplyRequest true "Reply"
// @Success 200 {object} MessageEnvelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /hospital-communication/message/{messageId}/reply [post]
func (h *Handler) ReplyToMessage(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}
	if strings.TrimSpace(req.ResponseMessage) == "" {
		badRequest(c, "Reply message is required")
		return
	}
	status := orDefault(req.Status, models.MessageApproved)
	if !models.ValidMessageStatus(status) {
		badRequest(c, "status must be pending, approved, rejected or resolved")
		return
	}

	callerID, _ := currentUser(c)
	h.applyMessageUpdate(c, status, &models.MessageResponse{
		Message:      req.ResponseMessage,
		ResponseDate: h.now().UTC(),
		RespondedBy:  callerID,
	}, "Reply sent successfully")
}

func (h *Handler) applyMessageUpdate(c *gin.Context, status string, response *models.MessageResponse, message string) {
	ctx := c.Request.Context()
	msg, err := h.store.GetMessage(ctx, c.Param("messageId"))
	if err != nil {
		h.storeFailure(c, err, "Message")
		return
	}

	msg.Status = status
	if response != nil {
		msg.Response = response
	}
	if err := h.store.UpdateMessage(ctx, msg); err != nil {
		h.storeFailure(c, err, "Message")
		return
	}

	view, err := h.newContactResolver(ctx).view(msg)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}
	c.JSON(http.StatusOK, MessageEnvelope{Message: message, Data: view})
}

// DeleteMessage godoc
// @Summary Delete a message
// @Tags hospital-communication
// @Produce json
// @Param messageId path string true "Message ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /hospital-communication/message/{messageId} [delete]
func (h *Handler) DeleteMessage(c *gin.Context) {
	if err := h.store.DeleteMessage(c.Request.Context(), c.Param("messageId")); err != nil {
		h.storeFailure(c, err, "Message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message deleted successfully"})
}

// GetMyHospital godoc
// @Summary The caller's hospital record
// @Description Find or create the hospital owned by a user
// @Tags hospital-communication
// @Produce json
// @Param userId path string true "Owner user ID"
// @Success 200 {object} models.Hospital
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /hospital-communication/my-hospital/{userId} [get]
func (h *Handler) GetMyHospital(c *gin.Context) {
	hospital, ok := h.ownedHospital(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, hospital)
}

// UpdateMyHospital godoc
// @Summary Update hospital capacity
// @Description Replace beds, doctors or resources; absent sections are kept
// @Tags hospital-communication
// @Accept json
// @Produce json
// @Param userId path string true "Owner user ID"
// @Param request body UpdateHospitalRequest true "Capacity"
// @Success 200 {object} models.Hospital
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /hospital-communication/my-hospital/{userId} [put]
func (h *Handler) UpdateMyHospital(c *gin.Context) {
	var req UpdateHospitalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, models.ErrCodeInvalidRequest, "Invalid request")
		return
	}

	hospital, ok := h.ownedHospital(c)
	if !ok {
		return
	}
	if req.Beds != nil {
		hospital.Beds = *req.Beds
	}
	if req.Doctors != nil {
		hospital.Doctors = *req.Doctors
	}
	if req.Resources != nil {
		hospital.Resources = *req.Resources
	}

	if err := h.store.UpdateHospital(c.Request.Context(), hospital); err != nil {
		h.storeFailure(c, err, "Hospital")
		return
	}
	h.logger.Info("hospital capacity updated",
		zap.String("hospital_id", hospital.ID),
		zap.Int("available_beds", hospital.Beds.AvailableBeds),
	)
	c.JSON(http.StatusOK, hospital)
}

// ownedHospital requires the :userId account to exist, then finds or creates its hospital.
func (h *Handler) ownedHospital(c *gin.Context) (*models.Hospital, bool) {
	ctx := c.Request.Context()
	userID := c.Param("userId")
	if _, err := h.store.GetUser(ctx, userID); err != nil {
		h.storeFailure(c, err, "User")
		return nil, false
	}
	hospital, err := h.store.EnsureHospital(ctx, userID)
	if err != nil {
		h.storeFailure(c, err, "Hospital")
		return nil, false
	}
	return hospital, true
}
