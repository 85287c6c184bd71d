package router

import (
	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/interfaces/http/handler"
	"github.com/bidhouse/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the marketplace HTTP handlers
type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Product *handler.ProductHandler
	Seller  *handler.SellerHandler
	Buyer   *handler.BuyerHandler
	Admin   *handler.AdminHandler
}

// Guards are the access middlewares the marketplace groups are gated by
type Guards struct {
	// Authenticate rejects requests without a valid access token
	Authenticate gin.HandlerFunc
	// Identify reads a token when one is present
	Identify gin.HandlerFunc
	// AuthLimit throttles credential and OTP endpoints
	AuthLimit gin.HandlerFunc
	// SellerApprovals backs the per-request approval check on /seller
	SellerApprovals middleware.SellerApprovals
	Logger          *zap.Logger
}

// MarketplaceGroups builds the auth, profile, product, seller, buyer and
// admin route groups
func MarketplaceGroups(h Handlers, g Guards) []*DomainGroup {
	access := middleware.PermissionConfig{Logger: g.Logger}
	buyer := string(identity.RoleBuyer)
	seller := string(identity.RoleSeller)
	admin := string(identity.RoleAdmin)
	// permissions are checked per route on top of the group's role gate
	can := func(perms ...string) gin.HandlerFunc {
		return middleware.RequirePermission(access, perms...)
	}

	authRoutes := NewDomainGroup("auth", "/auth")
	credentials := authRoutes.Group("credentials", "")
	credentials.Use(g.AuthLimit)
	credentials.POST("/register", h.Auth.Register)
	credentials.POST("/verify-email", h.Auth.VerifyEmail)
	credentials.POST("/resend-otp", h.Auth.ResendOTP)
	credentials.POST("/login", h.Auth.Login)
	credentials.POST("/refresh", h.Auth.RefreshToken)
	credentials.POST("/forgot-password", h.Auth.ForgotPassword)
	credentials.POST("/reset-password", h.Auth.ResetPassword)
	session := authRoutes.Group("session", "")
	session.Use(g.Authenticate)
	session.POST("/logout", h.Auth.Logout)
	session.GET("/me", h.Auth.GetCurrentUser)
	session.PUT("/password", h.Auth.ChangePassword)

	profileRoutes := NewDomainGroup("profile", "/profile")
	profileRoutes.Use(g.Authenticate)
	profileRoutes.GET("", h.Profile.GetProfile)
	profileRoutes.PUT("/buyer", middleware.RequireRole(access, buyer), h.Profile.UpdateBuyerProfile)
	profileRoutes.PUT("/seller", middleware.RequireRole(access, seller), h.Profile.UpdateSellerProfile)
	profileRoutes.PUT("/admin", middleware.RequireRole(access, admin), h.Profile.UpdateAdminProfile)

	productRoutes := NewDomainGroup("products", "/products")
	productRoutes.Use(g.Identify)
	productRoutes.GET("", h.Product.List)
	productRoutes.GET("/:id", h.Product.GetByID)
	productRoutes.GET("/:id/quote", h.Product.Quote)
	productRoutes.GET("/:id/bids", h.Product.ListBids)

	sellerRoutes := NewDomainGroup("seller", "/seller")
	sellerRoutes.Use(
		g.Authenticate,
		middleware.RequireRole(access, seller),
		middleware.RequireVerified(access),
	)
	// unapproved sellers may read their drafts but not change listings
	approved := middleware.RequireApprovedSeller(g.SellerApprovals, access)
	sellerRoutes.GET("/products", h.Seller.ListMine)
	sellerRoutes.POST("/products", approved, can(identity.PermProductCreate), h.Seller.Create)
	sellerRoutes.PUT("/products/:id", approved, can(identity.PermProductUpdate), h.Seller.Update)
	sellerRoutes.DELETE("/products/:id", approved, can(identity.PermProductDelete), h.Seller.Delete)
	sellerRoutes.POST("/products/:id/publish", approved, can(identity.PermProductUpdate), h.Seller.Publish)
	sellerRoutes.POST("/products/:id/cancel", approved, can(identity.PermProductUpdate), h.Seller.Cancel)
	sellerRoutes.POST("/products/:id/images/upload-url", approved, can(identity.PermProductUpdate), h.Seller.RequestImageUpload)
	sellerRoutes.POST("/products/:id/images", approved, can(identity.PermProductUpdate), h.Seller.AttachImage)
	sellerRoutes.DELETE("/products/:id/images", approved, can(identity.PermProductUpdate), h.Seller.RemoveImage)

	buyerRoutes := NewDomainGroup("buyer", "/buyer")
	buyerRoutes.Use(
		g.Authenticate,
		middleware.RequireRole(access, buyer),
		middleware.RequireVerified(access),
	)
	buyerRoutes.POST("/products/:id/bids", can(identity.PermBidPlace), h.Buyer.PlaceBid)
	buyerRoutes.GET("/bids", can(identity.PermBidView), h.Buyer.ListMyBids)

	adminRoutes := NewDomainGroup("admin", "/admin")
	adminRoutes.Use(g.Authenticate, middleware.RequireRole(access, admin))
	adminRoutes.GET("/users", can(identity.PermUserManage), h.Admin.ListUsers)
	adminRoutes.GET("/users/:id", can(identity.PermUserManage), h.Admin.GetUser)
	adminRoutes.POST("/users/:id/suspend", can(identity.PermUserManage), h.Admin.SuspendUser)
	adminRoutes.POST("/users/:id/reactivate", can(identity.PermUserManage), h.Admin.ReactivateUser)
	adminRoutes.POST("/sellers/:id/approve", can(identity.PermUserManage), h.Admin.ApproveSeller)
	adminRoutes.POST("/sellers/:id/revoke", can(identity.PermUserManage), h.Admin.RevokeSeller)
	adminRoutes.POST("/products/:id/moderate", can(identity.PermProductModerate), h.Admin.ModerateProduct)
	adminRoutes.GET("/dashboard", h.Admin.Dashboard)

	return []*DomainGroup{authRoutes, profileRoutes, productRoutes, sellerRoutes, buyerRoutes, adminRoutes}
}
