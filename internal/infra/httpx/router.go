package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bookbay/storefront/internal/infra/httpx/middlewares"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachClientMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.GetCart)
		r.Post("/clear", handler.ClearCart)
		r.Post("/merge", handler.MergeCart)

		r.Post("/items", handler.AddItem)
		r.Put("/items/{itemID}", handler.UpdateQuantity)
		r.Delete("/items/{itemID}", handler.RemoveItem)
		r.Put("/items/{itemID}/selected", handler.SelectLine)

		r.Put("/selection", handler.SetSelection)
		r.Put("/selection/all", handler.SelectAll)
		r.Post("/selection/remove", handler.RemoveSelected)
	})

	r.Route("/coupons", func(r chi.Router) {
		r.Get("/", handler.ListCoupons)
		r.Post("/apply", handler.ApplyCoupon)
		r.Delete("/applied", handler.RemoveCoupon)
	})

	r.Route("/guest-cart", func(r chi.Router) {
		r.Get("/", handler.GetGuestCart)
		r.Put("/", handler.SaveGuestCart)
	})

	return r
}
