package rest

import (
	"github.com/gin-gonic/gin"

	"lokapasar-be/internal/cart"
	"lokapasar-be/internal/utils"
)

type addCartItemRequest struct {
	ProductID uint  `json:"productId" binding:"required"`
	OptionID  *uint `json:"optionId"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type CartHandler struct {
	repo cart.Repository
}

func NewCartHandler(repo cart.Repository) *CartHandler {
	return &CartHandler{repo: repo}
}

func (h *CartHandler) ListItems(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	items, err := h.repo.GetCartItems(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	item := &cart.CartItem{
		UserID:    userID,
		ProductID: req.ProductID,
		OptionID:  req.OptionID,
		Quantity:  req.Quantity,
	}
	if err := h.repo.AddItem(ctx, item); err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, item)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	itemID, err := pathID(c, "id")
	if err != nil {
		respondBindError(c, err)
		return
	}

	ctx := c.Request.Context()
	userID, _ := utils.GetUserIDFromContext(ctx)

	if err := h.repo.RemoveItem(ctx, userID, itemID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"removed": itemID})
}
