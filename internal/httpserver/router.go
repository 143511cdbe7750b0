package httpserver

import (
	"context"
	"errors"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printshop-commerce/internal/domain"
	"printshop-commerce/internal/pricing"
	anonymoussvc "printshop-commerce/internal/service/anonymous"
	cartsvc "printshop-commerce/internal/service/cart"
	checkoutsvc "printshop-commerce/internal/service/checkout"
	customersvc "printshop-commerce/internal/service/customer"
	productsvc "printshop-commerce/internal/service/product"
)

type CatalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*productsvc.Detail, error)
	ShippingMethods(ctx context.Context) ([]domain.ShippingMethod, error)
}

type CartService interface {
	Get(ctx context.Context, actor domain.Actor) (*domain.Cart, error)
	AddLine(ctx context.Context, actor domain.Actor, req pricing.LineRequest) (*domain.Cart, error)
	UpdateLine(ctx context.Context, actor domain.Actor, lineID string, in cartsvc.UpdateLineInput) (*domain.Cart, error)
	RemoveLine(ctx context.Context, actor domain.Actor, lineID string) (*domain.Cart, error)
	Clear(ctx context.Context, actor domain.Actor) (*domain.Cart, error)
	SetShippingMethod(ctx context.Context, actor domain.Actor, code string) (*domain.Cart, error)
	ApplyOffer(ctx context.Context, actor domain.Actor, code string) (*domain.Cart, error)
	RemoveOffer(ctx context.Context, actor domain.Actor, code string) (*domain.Cart, error)
	SetAddresses(ctx context.Context, actor domain.Actor, in cartsvc.AddressesInput) (*domain.Cart, error)
	Merge(ctx context.Context, sessionToken, userID string) (*domain.Cart, error)
}

type DocumentService interface {
	Checkout(ctx context.Context, actor domain.Actor, in checkoutsvc.Input) (*checkoutsvc.Result, error)
	CreateEstimate(ctx context.Context, actor domain.Actor, in checkoutsvc.EstimateInput) (*checkoutsvc.Result, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*checkoutsvc.Document, error)
	Transition(ctx context.Context, actor domain.Actor, id string, in checkoutsvc.TransitionInput) (*checkoutsvc.Document, error)
}

type CustomerService interface {
	Signup(ctx context.Context, in customersvc.SignupInput) (*domain.Customer, error)
	Login(ctx context.Context, in customersvc.LoginInput) (*customersvc.LoginResult, error)
	Authenticate(token string) (domain.Actor, error)
	Get(ctx context.Context, id string) (*domain.Customer, error)
}

type AnonymousService interface {
	Issue(ctx context.Context) (anonymoussvc.Session, error)
	Owner(ctx context.Context, token string) (domain.CartOwner, error)
	Ping(ctx context.Context) error
}

// Pinger is anything /readyz should check, typically the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries the services the router dispatches to.
type Deps struct {
	CatalogSvc   CatalogService
	CartSvc      CartService
	DocumentSvc  DocumentService
	CustomerSvc  CustomerService
	AnonymousSvc AnonymousService
	DB           Pinger
}

// Options tunes middleware that does not belong to a service.
type Options struct {
	CORSOrigins        []string
	OfferRatePerMinute int
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.CatalogSvc == nil || deps.CartSvc == nil || deps.DocumentSvc == nil ||
		deps.CustomerSvc == nil || deps.AnonymousSvc == nil {
		return nil, errors.New("httpserver: missing service dependency")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger.Named("http")).Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	h := &handlers{deps: deps, logger: logger}
	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.DB, deps.AnonymousSvc))

	api := router.Group("/")
	api.Use(actorMiddleware(deps.CustomerSvc, deps.AnonymousSvc))

	api.POST("/auth/anonymous", h.issueAnonymous)
	api.POST("/auth/signup", h.signup)
	api.POST("/auth/login", h.login)
	api.GET("/me", requireUser(), h.me)

	api.GET("/products", h.listProducts)
	api.GET("/products/:id", h.getProduct)
	api.GET("/shipping-methods", h.listShippingMethods)

	cart := api.Group("/cart", requireActor())
	cart.GET("", h.getCart)
	cart.DELETE("", h.clearCart)
	cart.POST("/items", h.addLine)
	cart.PATCH("/items/:id", h.updateLine)
	cart.DELETE("/items/:id", h.removeLine)
	cart.POST("/shipping-method", h.setShippingMethod)
	cart.POST("/offer", newOwnerThrottle(opts.OfferRatePerMinute).middleware(), h.applyOffer)
	cart.DELETE("/offer", h.removeOffer)
	cart.PUT("/addresses", h.setAddresses)
	cart.POST("/merge", requireUser(), h.mergeCart)

	api.POST("/checkout", requireActor(), h.checkout)
	api.POST("/estimates", requireUser(), h.createEstimate)
	api.GET("/orders/:id", requireActor(), h.getDocument)
	api.POST("/orders/:id/transition", requireUser(), h.transition)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", anonymousTokenHeader)
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
