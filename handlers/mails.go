package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopnest/shopnest-backend-go/middleware"
	"github.com/shopnest/shopnest-backend-go/models"
	"github.com/shopnest/shopnest-backend-go/store"
	"github.com/shopnest/shopnest-backend-go/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mailFilter(c echo.Context) (store.MailFilter, error) {
	f := store.MailFilter{Search: strings.TrimSpace(c.QueryParam("search"))}
	if raw, ok := filterValue(c.QueryParam("filterStatus")); ok {
		status := models.MailStatus(raw)
		if !status.Valid() {
			return f, utils.BadRequest(fmt.Sprintf("Invalid mail status %q", raw))
		}
		f.Status = &status
	}
	if raw, ok := filterValue(c.QueryParam("filterMailType")); ok {
		mailType := models.MailType(raw)
		if !mailType.Valid() {
			return f, utils.BadRequest(fmt.Sprintf("Invalid mail type %q", raw))
		}
		f.MailType = &mailType
	}
	return f, nil
}

func (h *Handler) listMails(c echo.Context, f store.MailFilter) error {
	ctx, cancel := h.context(c)
	defer cancel()

	page := pageOf(c)
	mails, total, err := h.store.Mails.List(ctx, f, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"mails":      mails,
		"pagination": utils.NewPagination(page, total),
	})
}

// ownMail loads mail :id and checks the caller owns it.
func (h *Handler) ownMail(ctx context.Context, c echo.Context, caller middleware.Caller) (*models.Mail, error) {
	mailID, err := objectID(c.Param("id"), "mail")
	if err != nil {
		return nil, err
	}
	mail, err := h.store.Mails.Get(ctx, mailID)
	if err != nil {
		return nil, notFound(err, "Mail not found")
	}
	if !caller.Owns(mail.UserID) {
		return nil, utils.Forbidden("You can only access your own mails")
	}
	return mail, nil
}

// attachedOrder resolves an optional orderId form value to an order the
// caller may see; other users' orders are reported as missing.
func (h *Handler) attachedOrder(ctx context.Context, caller middleware.Caller, raw string) (*primitive.ObjectID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := objectID(raw, "order")
	if err != nil {
		return nil, err
	}
	order, err := h.store.Orders.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Order not found")
	}
	if !caller.Owns(order.UserID) && !caller.IsAdmin() {
		return nil, utils.NotFound("Order not found")
	}
	return &id, nil
}

func (h *Handler) CreateMail(c echo.Context, caller middleware.Caller) error {
	subject := strings.TrimSpace(c.FormValue("subject"))
	body := strings.TrimSpace(c.FormValue("body"))
	mailType := models.MailType(c.FormValue("mailType"))
	if subject == "" || body == "" || mailType == "" {
		return utils.BadRequest("subject, body and mailType are required")
	}
	if !mailType.Valid() {
		return utils.BadRequest(fmt.Sprintf("Invalid mail type %q", mailType))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	orderID, err := h.attachedOrder(ctx, caller, c.FormValue("orderId"))
	if err != nil {
		return err
	}
	image, err := h.uploadImage(ctx, c, "imageFile", false)
	if err != nil {
		return err
	}
	mail := &models.Mail{
		OrderID:  orderID,
		UserID:   *caller.UserID,
		Subject:  subject,
		Body:     body,
		Status:   models.MailStatusUnread,
		MailType: mailType,
		Image:    image,
	}
	if err := h.store.Mails.Create(ctx, mail); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"mail": mail})
}

func (h *Handler) UpdateMail(c echo.Context, caller middleware.Caller) error {
	ctx, cancel := h.context(c)
	defer cancel()

	mail, err := h.ownMail(ctx, c, caller)
	if err != nil {
		return err
	}

	var u models.MailUpdate
	if v := strings.TrimSpace(c.FormValue("subject")); v != "" {
		u.Subject = &v
	}
	if v := strings.TrimSpace(c.FormValue("body")); v != "" {
		u.Body = &v
	}
	if v := c.FormValue("mailType"); v != "" {
		mailType := models.MailType(v)
		if !mailType.Valid() {
			return utils.BadRequest(fmt.Sprintf("Invalid mail type %q", v))
		}
		u.MailType = &mailType
	}
	if u.OrderID, err = h.attachedOrder(ctx, caller, c.FormValue("orderId")); err != nil {
		return err
	}
	image, err := h.uploadImage(ctx, c, "imageFile", false)
	if err != nil {
		return err
	}
	if image != "" {
		u.Image = &image
	}

	updated, err := h.store.Mails.Update(ctx, mail.ID, u)
	if err != nil {
		return notFound(err, "Mail not found")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) RemoveMyMail(c echo.Context, caller middleware.Caller) error {
	ctx, cancel := h.context(c)
	defer cancel()

	mail, err := h.ownMail(ctx, c, caller)
	if err != nil {
		return err
	}
	deleted, err := h.store.Mails.Delete(ctx, mail.ID)
	if err != nil {
		return notFound(err, "Mail not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"mail": deleted})
}

func (h *Handler) GetAllMyMails(c echo.Context, caller middleware.Caller) error {
	f, err := mailFilter(c)
	if err != nil {
		return err
	}
	f.UserID = caller.UserID
	return h.listMails(c, f)
}

// GetAllMailsReceived lists the caller's mails an admin has answered.
func (h *Handler) GetAllMailsReceived(c echo.Context, caller middleware.Caller) error {
	f, err := mailFilter(c)
	if err != nil {
		return err
	}
	f.UserID = caller.UserID
	f.Answered = true
	return h.listMails(c, f)
}

func (h *Handler) FindMyMailByOrder(c echo.Context, caller middleware.Caller) error {
	orderID, err := objectID(c.QueryParam("orderId"), "order")
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	mail, err := h.store.Mails.FindByOrder(ctx, *caller.UserID, orderID)
	if err != nil {
		return notFound(err, "Mail not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"mail": mail})
}

type replyRequest struct {
	Content string `json:"content" validate:"required"`
}

func (h *Handler) ReplyToMyMail(c echo.Context, caller middleware.Caller) error {
	var req replyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	mail, err := h.ownMail(ctx, c, caller)
	if err != nil {
		return err
	}
	updated, err := h.store.Mails.AddReply(ctx, mail.ID, models.Reply{User: *caller.UserID, Content: req.Content}, nil)
	if err != nil {
		return notFound(err, "Mail not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"mail": updated})
}

// MarkMyMailRead flags the replies the owner has not written as read.
func (h *Handler) MarkMyMailRead(c echo.Context, caller middleware.Caller) error {
	ctx, cancel := h.context(c)
	defer cancel()

	mail, err := h.ownMail(ctx, c, caller)
	if err != nil {
		return err
	}
	mail.MarkReadBy(*caller.UserID, false)
	if err := h.store.Mails.SaveReadState(ctx, mail); err != nil {
		return notFound(err, "Mail not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"mail": mail})
}

func (h *Handler) AdminGetMails(c echo.Context) error {
	f, err := mailFilter(c)
	if err != nil {
		return err
	}
	return h.listMails(c, f)
}

func (h *Handler) AdminReplyToMail(c echo.Context, caller middleware.Caller) error {
	mailID, err := objectID(c.Param("mailId"), "mail")
	if err != nil {
		return err
	}
	var req replyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	mail, err := h.store.Mails.AddReply(ctx, mailID, models.Reply{User: *caller.UserID, Content: req.Content}, caller.UserID)
	if err != nil {
		return notFound(err, "Mail not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"mail": mail})
}

// AdminMarkMailRead flags the owner's replies as read.
func (h *Handler) AdminMarkMailRead(c echo.Context, caller middleware.Caller) error {
	mailID, err := objectID(c.Param("mailId"), "mail")
	if err != nil {
		return err
	}

	ctx, cancel := h.context(c)
	defer cancel()

	mail, err := h.store.Mails.Get(ctx, mailID)
	if err != nil {
		return notFound(err, "Mail not found")
	}
	mail.MarkReadBy(*caller.UserID, true)
	if err := h.store.Mails.SaveReadState(ctx, mail); err != nil {
		return notFound(err, "Mail not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"mail": mail})
}
