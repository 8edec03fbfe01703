package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/staffledger/modules/leave/domain/entities/category"
	"github.com/iota-uz/staffledger/modules/leave/domain/entities/leaveapp"
	"github.com/iota-uz/staffledger/modules/leave/services"
	"github.com/iota-uz/staffledger/pkg/application"
	"github.com/iota-uz/staffledger/pkg/composables"
	"github.com/iota-uz/staffledger/pkg/httpapi"
)

type LeaveController struct {
	leave    *services.LeaveService
	basePath string
}

func NewLeaveController(leaveSvc *services.LeaveService) application.Controller {
	return &LeaveController{
		leave:    leaveSvc,
		basePath: "/api/leave",
	}
}

func (c *LeaveController) Key() string {
	return c.basePath
}

func (c *LeaveController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/categories", c.Categories).Methods(http.MethodGet)
	router.HandleFunc("/applications", c.List).Methods(http.MethodGet)
	router.HandleFunc("/applications", c.File).Methods(http.MethodPost)
	router.HandleFunc("/applications/{id:[0-9]+}", c.Get).Methods(http.MethodGet)
	router.HandleFunc("/applications/{id:[0-9]+}/decision", c.Review).Methods(http.MethodPost)
	router.HandleFunc("/applications/{id:[0-9]+}/cancel", c.Cancel).Methods(http.MethodPost)
	router.HandleFunc("/entitlements", c.Grant).Methods(http.MethodPost)
	router.HandleFunc("/balances/{staffId:[0-9]+}", c.Summary).Methods(http.MethodGet)
	router.HandleFunc("/rollover", c.Rollover).Methods(http.MethodPost)
}

func pathInt64(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

func parseDate(v string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(v))
}

func queryYear(r *http.Request) int {
	if v, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && v > 0 {
		return v
	}
	return time.Now().Year()
}

func categoryToJSON(cat category.Category) map[string]any {
	return map[string]any{
		"id":                     cat.ID,
		"code":                   cat.Code,
		"name":                   cat.Name,
		"is_paid":                cat.IsPaid,
		"annual_allowance":       cat.AnnualAllowance.String(),
		"min_notice_days":        cat.MinNoticeDays,
		"max_consecutive_days":   cat.MaxConsecutiveDays,
		"carry_forward":          cat.CarryForward,
		"allow_negative_balance": cat.AllowNegativeBalance,
		"business_days_only":     cat.BusinessDaysOnly,
	}
}

func applicationToJSON(a *leaveapp.Application) map[string]any {
	out := map[string]any{
		"id":          a.ID,
		"staff_id":    a.StaffID,
		"category_id": a.CategoryID,
		"start_date":  a.StartDate.Format(time.DateOnly),
		"end_date":    a.EndDate.Format(time.DateOnly),
		"total_days":  a.TotalDays.String(),
		"reason":      a.Reason,
		"status":      a.Status,
		"created_at":  a.CreatedAt,
		"updated_at":  a.UpdatedAt,
	}
	if a.ReviewerID != nil {
		out["reviewer_id"] = *a.ReviewerID
	}
	if a.RejectionReason != nil {
		out["rejection_reason"] = *a.RejectionReason
	}
	if a.DecidedAt != nil {
		out["decided_at"] = *a.DecidedAt
	}
	return out
}

func (c *LeaveController) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := c.leave.ListCategories(r.Context())
	if err != nil {
		_ = httpapi.WriteServiceError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(cats))
	for _, cat := range cats {
		out = append(out, categoryToJSON(cat))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *LeaveController) List(w http.ResponseWriter, r *http.Request) {
	params := &leaveapp.FindParams{Limit: 25}
	q := r.URL.Query()
	if v, err := strconv.ParseInt(q.Get("staff_id"), 10, 64); err == nil {
		params.StaffID = &v
	}
	if v, err := strconv.ParseInt(q.Get("category_id"), 10, 64); err == nil {
		params.CategoryID = &v
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		params.Status = leaveapp.Status(v)
	}
	if v, err := strconv.Atoi(q.Get("year")); err == nil && v > 0 {
		params.Year = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 && v <= 100 {
		params.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		params.Offset = v
	}

	items, err := c.leave.ListApplications(r.Context(), params)
	if err != nil {
		_ = httpapi.WriteServiceError(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(items))
	for _, a := range items {
		out = append(out, applicationToJSON(a))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (c *LeaveController) Get(w http.ResponseWriter, r *http.Request) {
	app, err := c.leave.GetApplication(r.Context(), pathInt64(r, "id"))
	if err != nil {
		_ = httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, applicationToJSON(app))
}

type fileDTO struct {
	StaffID    int64  `json:"staff_id"`
	CategoryID int64  `json:"category_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Reason     string `json:"reason"`
}

func (c *LeaveController) File(w http.ResponseWriter, r *http.Request) {
	var dto fileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	startDate, err := parseDate(dto.StartDate)
	if err != nil {
		_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_DATE", "start_date must be YYYY-MM-DD")
		return
	}
	endDate, err := parseDate(dto.EndDate)
	if err != nil {
		_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_DATE", "end_date must be YYYY-MM-DD")
		return
	}

	app, err := c.leave.FileApplication(r.Context(), services.FileInput{
		StaffID:    dto.StaffID,
		CategoryID: dto.CategoryID,
		StartDate:  startDate,
		EndDate:    endDate,
		Reason:     dto.Reason,
	})
	if err != nil {
		_ = httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, applicationToJSON(app))
}

type decisionDTO struct {
	Decision        string `json:"decision"`
	RejectionReason string `json:"rejection_reason"`
}

func (c *LeaveController) Review(w http.ResponseWriter, r *http.Request) {
	var dto decisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	reviewerID, err := composables.UseActorID(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, r, http.StatusUnauthorized, "NO_ACTOR", "authenticated actor required")
		return
	}

	app, err := c.leave.Review(r.Context(), pathInt64(r, "id"), leaveapp.Status(dto.Decision), reviewerID, dto.RejectionReason)
	if err != nil {
		_ = httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, applicationToJSON(app))
}

func (c *LeaveController) Cancel(w http.ResponseWriter, r *http.Request) {
	actorID, err := composables.UseActorID(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, r, http.StatusUnauthorized, "NO_ACTOR", "authenticated actor required")
		return
	}

	app, err := c.leave.Cancel(r.Context(), pathInt64(r, "id"), actorID)
	if err != nil {
		_ = httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, applicationToJSON(app))
}

type grantDTO struct {
	StaffID    int64  `json:"staff_id"`
	CategoryID int64  `json:"category_id"`
	Year       int    `json:"year"`
	Allocated  string `json:"allocated"`
	Carried    string `json:"carried"`
}

func (c *LeaveController) Grant(w http.ResponseWriter, r *http.Request) {
	var dto grantDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	allocated, err := decimal.NewFromString(dto.Allocated)
	if err != nil {
		_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_AMOUNT", "allocated must be a decimal number")
		return
	}
	carried := decimal.Zero
	if strings.TrimSpace(dto.Carried) != "" {
		if carried, err = decimal.NewFromString(dto.Carried); err != nil {
			_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_AMOUNT", "carried must be a decimal number")
			return
		}
	}

	ent, err := c.leave.GrantEntitlement(r.Context(), dto.StaffID, dto.CategoryID, dto.Year, allocated, carried)
	if err != nil {
		_ = httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, ent.Snapshot())
}

func (c *LeaveController) Summary(w http.ResponseWriter, r *http.Request) {
	summaries, err := c.leave.Summary(r.Context(), pathInt64(r, "staffId"), queryYear(r))
	if err != nil {
		_ = httpapi.WriteServiceError(w, r, err)
		return
	}

	out := make([]map[string]any, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, map[string]any{
			"category":    categoryToJSON(s.Category),
			"entitlement": s.Entitlement.Snapshot(),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"items": out})
}

type rolloverDTO struct {
	FromYear int `json:"from_year"`
}

func (c *LeaveController) Rollover(w http.ResponseWriter, r *http.Request) {
	var dto rolloverDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if dto.FromYear <= 0 {
		_ = httpapi.WriteError(w, r, http.StatusBadRequest, "INVALID_YEAR", "from_year is required")
		return
	}

	created, err := c.leave.RolloverYear(r.Context(), dto.FromYear)
	if err != nil {
		_ = httpapi.WriteServiceError(w, r, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{"created": created})
}
