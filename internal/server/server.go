package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"household-planner/internal/app"
	"household-planner/internal/mealplan"
	"household-planner/internal/retry"
	"household-planner/internal/shopping"
)

// Server exposes the application over HTTP for the web UI.
type Server struct {
	app    *app.App
	guard  *listGuard
	engine *gin.Engine
}

// New creates a Server and registers all routes.
func New(application *app.App) *Server {
	s := &Server{
		app:    application,
		guard:  newListGuard(5 * time.Minute),
		engine: gin.Default(),
	}
	s.setupRoutes()
	return s
}

// Run starts the HTTP server on the given address.
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

// Handler returns the underlying HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	household := s.engine.Group("/households/:householdID")

	household.POST("/recipes", s.createRecipe)
	household.POST("/meal-plans", s.createMealPlan)
	household.POST("/meal-plans/:planID/entries", s.addMealPlanEntry)
	household.POST("/meal-plans/:planID/shopping-lists", s.generateShoppingList)

	household.GET("/shopping-lists/:listID", s.getShoppingList)
	household.POST("/shopping-lists/:listID/regenerate", s.regenerateShoppingList)
	household.POST("/shopping-lists/:listID/items", s.addManualItem)
	household.PUT("/shopping-lists/:listID/items/:itemID", s.updateItem)
	household.DELETE("/shopping-lists/:listID/items/:itemID", s.deleteItem)
	household.DELETE("/shopping-lists/:listID/checked-items", s.clearCheckedItems)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// renderError maps domain failures onto HTTP statuses.
func renderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, shopping.ErrMealPlanNotFound),
		errors.Is(err, shopping.ErrShoppingListNotFound),
		errors.Is(err, shopping.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, shopping.ErrNotLinkedToMealPlan):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, retry.ErrIDGenerationExhausted):
		// Sustained write contention; the client can simply try again.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "please try again"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type ingredientRequest struct {
	Name     string              `json:"name"`
	Quantity decimal.NullDecimal `json:"quantity"`
	Unit     string              `json:"unit"`
	Category string              `json:"category"`
}

type createRecipeRequest struct {
	Name        string              `json:"name"`
	Ingredients []ingredientRequest `json:"ingredients"`
}

func (s *Server) createRecipe(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := &mealplan.Recipe{HouseholdID: householdID, Name: req.Name}
	for _, ing := range req.Ingredients {
		rec.Ingredients = append(rec.Ingredients, mealplan.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			Category: ing.Category,
		})
	}
	if err := s.app.CreateRecipe(c.Request.Context(), rec); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type createMealPlanRequest struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

func (s *Server) createMealPlan(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	var req createMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := &mealplan.MealPlan{
		HouseholdID: householdID,
		Name:        req.Name,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.app.CreateMealPlan(c.Request.Context(), plan); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

type addEntryRequest struct {
	Date           time.Time `json:"date"`
	RecipeID       *int64    `json:"recipe_id"`
	CustomMealName string    `json:"custom_meal_name"`
}

func (s *Server) addMealPlanEntry(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	planID, ok := pathID(c, "planID")
	if !ok {
		return
	}
	var req addEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := &mealplan.Entry{
		Date:           req.Date,
		RecipeID:       req.RecipeID,
		CustomMealName: req.CustomMealName,
	}
	if err := s.app.AddMealPlanEntry(c.Request.Context(), householdID, planID, entry); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

type generateRequest struct {
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

func (s *Server) generateShoppingList(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	planID, ok := pathID(c, "planID")
	if !ok {
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := s.app.GenerateShoppingList(c.Request.Context(), householdID, planID, req.Name, req.StartDate, req.EndDate)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (s *Server) getShoppingList(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	listID, ok := pathID(c, "listID")
	if !ok {
		return
	}

	list, err := s.app.GetShoppingList(c.Request.Context(), householdID, listID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) regenerateShoppingList(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	listID, ok := pathID(c, "listID")
	if !ok {
		return
	}

	if !s.guard.tryAcquire(householdID, listID) {
		c.JSON(http.StatusConflict, gin.H{"error": "regeneration already in progress for this list"})
		return
	}
	defer s.guard.release(householdID, listID)

	list, err := s.app.RegenerateShoppingList(c.Request.Context(), householdID, listID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type addItemRequest struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Category string          `json:"category"`
}

func (s *Server) addManualItem(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	listID, ok := pathID(c, "listID")
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := &shopping.ShoppingListItem{
		HouseholdID:    householdID,
		ShoppingListID: listID,
		Name:           req.Name,
		Quantity:       req.Quantity,
		Unit:           req.Unit,
		Category:       req.Category,
	}
	if err := s.app.AddManualItem(c.Request.Context(), item); err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

type updateItemRequest struct {
	Name          string              `json:"name"`
	Quantity      decimal.Decimal     `json:"quantity"`
	Unit          string              `json:"unit"`
	Category      string              `json:"category"`
	IsChecked     bool                `json:"is_checked"`
	CheckedAt     *time.Time          `json:"checked_at"`
	QuantityDelta decimal.NullDecimal `json:"quantity_delta"`
	SortOrder     int                 `json:"sort_order"`
	Version       string              `json:"version"`
}

func (s *Server) updateItem(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	listID, ok := pathID(c, "listID")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The stored row decides whether the item is manual; clients cannot flip
	// it through an edit.
	stored, err := s.app.GetShoppingList(c.Request.Context(), householdID, listID)
	if err != nil {
		renderError(c, err)
		return
	}
	isManual := false
	for _, existing := range stored.Items {
		if existing.ID == itemID {
			isManual = existing.IsManuallyAdded
		}
	}

	item := &shopping.ShoppingListItem{
		HouseholdID:     householdID,
		ShoppingListID:  listID,
		ID:              itemID,
		Name:            req.Name,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		Category:        req.Category,
		IsChecked:       req.IsChecked,
		CheckedAt:       req.CheckedAt,
		IsManuallyAdded: isManual,
		QuantityDelta:   req.QuantityDelta,
		SortOrder:       req.SortOrder,
		Version:         req.Version,
	}

	result, err := s.app.UpdateItem(c.Request.Context(), item)
	if err != nil {
		renderError(c, err)
		return
	}

	// Conflicts are a routine outcome of collaborative editing: always a
	// notice in the payload, never an error status.
	c.JSON(http.StatusOK, gin.H{
		"saved":    result.Saved,
		"conflict": result.Conflict,
		"message":  result.Message,
		"item":     item,
	})
}

func (s *Server) deleteItem(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	listID, ok := pathID(c, "listID")
	if !ok {
		return
	}
	itemID, ok := pathID(c, "itemID")
	if !ok {
		return
	}

	if err := s.app.DeleteItem(c.Request.Context(), householdID, listID, itemID); err != nil {
		renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearCheckedItems(c *gin.Context) {
	householdID, ok := pathID(c, "householdID")
	if !ok {
		return
	}
	listID, ok := pathID(c, "listID")
	if !ok {
		return
	}

	removed, err := s.app.ClearCheckedItems(c.Request.Context(), householdID, listID)
	if err != nil {
		renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
