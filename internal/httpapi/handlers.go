package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/store"
)

func (a *API) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"services": a.service.Catalog().Services()})
}

func (a *API) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.QuoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	items, totals := a.service.Quote(req.Items)
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "totals": totals})
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders := a.service.Orders()
	if branch, ok := r.URL.Query()["branch"]; ok && len(branch) > 0 {
		orders = a.service.OrdersByBranch(branch[0])
	}
	limit := parsePositiveLimit(r.URL.Query().Get("limit"), 0, 500)
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in domain.OrderInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, err)
		return
	}
	order, err := a.service.AddOrder(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := a.service.Order(chi.URLParam(r, "id"))
	if !ok {
		writeServiceError(w, store.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (a *API) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var patch domain.OrderPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeServiceError(w, err)
		return
	}
	order, ack, err := a.service.UpdateOrder(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, order, ack)
}

func (a *API) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	ack, err := a.service.DeleteOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, map[string]any{"deleted": true}, ack)
}

type processRequest struct {
	Status domain.ProcessStatus `json:"status"`
}

func (a *API) handleProcess(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	update, err := a.service.SetLineItemProcess(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, update, update.Ack)
}

func (a *API) handleInvoiceText(w http.ResponseWriter, r *http.Request) {
	text, link, err := a.service.InvoiceText(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"text": text, "link": link})
}

func (a *API) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"customers": a.service.Customers()})
}

func (a *API) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var in domain.CustomerInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, err)
		return
	}
	customer, err := a.service.AddCustomer(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (a *API) handleLookupCustomer(w http.ResponseWriter, r *http.Request) {
	customer, ok := a.service.FindCustomerByPhone(r.URL.Query().Get("phone"))
	if !ok {
		writeServiceError(w, store.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (a *API) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var patch domain.CustomerPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeServiceError(w, err)
		return
	}
	// Aggregates are maintained by order creation only.
	patch.TotalOrders, patch.TotalSpent = nil, nil
	customer, ack, err := a.service.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, customer, ack)
}

func (a *API) handleListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts := a.service.Discounts()
	if r.URL.Query().Get("active") == "true" {
		discounts = a.service.ActiveDiscounts()
	}
	writeJSON(w, http.StatusOK, map[string]any{"discounts": discounts})
}

func (a *API) handleCreateDiscount(w http.ResponseWriter, r *http.Request) {
	var in domain.DiscountInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, err)
		return
	}
	discount, err := a.service.AddDiscount(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, discount)
}

func (a *API) handleUpdateDiscount(w http.ResponseWriter, r *http.Request) {
	var patch domain.DiscountPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeServiceError(w, err)
		return
	}
	discount, ack, err := a.service.UpdateDiscount(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, discount, ack)
}

func (a *API) handleDeleteDiscount(w http.ResponseWriter, r *http.Request) {
	ack, err := a.service.DeleteDiscount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, map[string]any{"deleted": true}, ack)
}

func (a *API) handleListCashFlows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cash_flows": a.service.CashFlows()})
}

func (a *API) handleCreateCashFlow(w http.ResponseWriter, r *http.Request) {
	var in domain.CashFlowInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, err)
		return
	}
	entry, err := a.service.AddCashFlow(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (a *API) handleDeleteCashFlow(w http.ResponseWriter, r *http.Request) {
	ack, err := a.service.DeleteCashFlow(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, map[string]any{"deleted": true}, ack)
}

func (a *API) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"users": a.service.Users()})
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, err)
		return
	}
	user, err := a.service.AddUser(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, err)
		return
	}
	user, ack, err := a.service.UpdateUser(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, user, ack)
}

func (a *API) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ack, err := a.service.DeleteUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, map[string]any{"deleted": true}, ack)
}

func (a *API) handleListBranches(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"branches": a.service.Branches()})
}

func (a *API) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	var in domain.BranchInput
	if err := decodeJSON(r, &in); err != nil {
		writeServiceError(w, err)
		return
	}
	branch, err := a.service.AddBranch(r.Context(), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, branch)
}

func (a *API) handleUpdateBranch(w http.ResponseWriter, r *http.Request) {
	var patch domain.BranchPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeServiceError(w, err)
		return
	}
	branch, ack, err := a.service.UpdateBranch(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, branch, ack)
}

func (a *API) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	ack, err := a.service.DeleteBranch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondWithAck(w, r, http.StatusOK, map[string]any{"deleted": true}, ack)
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.service.Settings())
}

func (a *API) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeServiceError(w, err)
		return
	}
	settings, ack := a.service.UpdateSettings(r.Context(), patch)
	respondWithAck(w, r, http.StatusOK, settings, ack)
}
