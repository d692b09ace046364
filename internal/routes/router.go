package routes

type Router struct {
	Store *Store
}

// Resolve returns the destination for a tenant's category. A miss means the
// category is not logged for that tenant.
func (r Router) Resolve(tenantID string, category Category) (string, bool) {
	if r.Store == nil {
		return "", false
	}
	return r.Store.GetRoute(tenantID, category)
}
