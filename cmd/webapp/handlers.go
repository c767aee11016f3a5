package main

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"kanalyab/internal/catalog"
	"kanalyab/internal/moderation"

	"github.com/go-chi/chi/v5"
)

const defaultPageSize = 24

func (app *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := app.Health(ctx); err != nil {
		app.Logger.Warn().Err(err).Msg("health check failed")
		app.writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	app.writeOK(w, http.StatusOK, "", map[string]string{"status": "ok"})
}

func (app *Application) listChannelsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("pageSize"))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > catalog.MaxPageSize {
		pageSize = catalog.MaxPageSize
	}
	categoryID, _ := strconv.Atoi(query.Get("categoryId"))
	vipOnly, _ := strconv.ParseBool(query.Get("vip"))

	result, err := app.Catalog.ListChannels(r.Context(), catalog.ListQuery{
		Search:     query.Get("search"),
		CategoryID: categoryID,
		VIPOnly:    vipOnly,
		Sort:       query.Get("sort"),
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
	if err != nil {
		app.serviceError(w, r, err)
		return
	}

	totalPages := int(math.Ceil(float64(result.Total) / float64(pageSize)))
	app.writeOK(w, http.StatusOK, "", map[string]any{
		"channels":          result.Channels,
		"lastUpdatedAt":     result.LastUpdatedAt,
		"lastUpdatedJalali": result.LastUpdatedJalali,
		"pagination": map[string]int{
			"currentPage": page,
			"pageSize":    pageSize,
			"totalPages":  totalPages,
			"totalItems":  result.Total,
		},
	})
}

func (app *Application) getChannelHandler(w http.ResponseWriter, r *http.Request) {
	ch, err := app.Catalog.GetChannel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "", ch)
}

func (app *Application) updateChannelHandler(w http.ResponseWriter, r *http.Request) {
	var in catalog.UpdateChannelInput
	if err := readJSON(w, r, &in); err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ch, err := app.Catalog.UpdateChannel(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "channel updated", ch)
}

func (app *Application) setVIPHandler(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IsVIP *bool `json:"isVip"`
	}
	if err := readJSON(w, r, &in); err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.IsVIP == nil {
		app.writeError(w, http.StatusBadRequest, "isVip is required")
		return
	}
	if err := app.Catalog.SetVIP(r.Context(), chi.URLParam(r, "id"), *in.IsVIP); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "vip status updated", nil)
}

func (app *Application) deleteChannelHandler(w http.ResponseWriter, r *http.Request) {
	if err := app.Catalog.DeleteChannel(r.Context(), chi.URLParam(r, "id")); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "channel deleted", nil)
}

func (app *Application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := app.Catalog.ListCategories(r.Context())
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "", categories)
}

func (app *Application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		app.writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	c, err := app.Catalog.GetCategory(r.Context(), id)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "", c)
}

func (app *Application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var in catalog.CategoryInput
	if err := readJSON(w, r, &in); err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := app.Catalog.CreateCategory(r.Context(), in)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusCreated, "category created", c)
}

func (app *Application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		app.writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	var in catalog.CategoryInput
	if err := readJSON(w, r, &in); err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := app.Catalog.UpdateCategory(r.Context(), id, in)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "category updated", c)
}

func (app *Application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		app.writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}
	if err := app.Catalog.DeleteCategory(r.Context(), id); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "category deleted", nil)
}

func (app *Application) createSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	var in moderation.CreateSubmissionInput
	if err := readJSON(w, r, &in); err != nil {
		app.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sub, err := app.Moderation.CreateSubmission(r.Context(), in)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusCreated, "submission received and awaiting review", sub)
}

func (app *Application) listPendingHandler(w http.ResponseWriter, r *http.Request) {
	subs, err := app.Moderation.ListPending(r.Context())
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "", subs)
}

func (app *Application) approveSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		app.writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	ch, err := app.Moderation.ApproveSubmission(r.Context(), id)
	if err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "submission approved", ch)
}

func (app *Application) rejectSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		app.writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	if err := app.Moderation.RejectSubmission(r.Context(), id); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "submission rejected", nil)
}

func (app *Application) deleteSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := intParam(r, "id")
	if err != nil {
		app.writeError(w, http.StatusBadRequest, "invalid submission id")
		return
	}
	if err := app.Moderation.DeleteSubmission(r.Context(), id); err != nil {
		app.serviceError(w, r, err)
		return
	}
	app.writeOK(w, http.StatusOK, "submission deleted", nil)
}
