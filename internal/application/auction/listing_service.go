package auction

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Listing errors raised by the service layer
var (
	ErrNotOwner            = shared.NewDomainError("FORBIDDEN", "You do not own this product")
	ErrStorageDisabled     = shared.NewDomainError("STORAGE_DISABLED", "Image storage is not configured")
	ErrUnsupportedImage    = shared.NewDomainError("UNSUPPORTED_IMAGE_TYPE", "Only JPEG, PNG, WebP and GIF images are accepted")
	ErrImageNotUploaded    = shared.NewDomainError("IMAGE_NOT_UPLOADED", "Image has not been uploaded yet")
	ErrImageKeyMismatch    = shared.NewDomainError("INVALID_IMAGE", "Image key does not belong to this product")
	ErrProductNotDeletable = shared.NewDomainError("INVALID_STATE", "Only draft or cancelled products can be deleted")
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// ListingServiceConfig holds listing rules
type ListingServiceConfig struct {
	Policy     auction.ListingPolicy
	QuoteSteps int
}

// ListingService manages the seller side of listings and the public catalog
type ListingService struct {
	productRepo    auction.ProductRepository
	storage        ImageStorage
	eventPublisher shared.EventPublisher
	config         ListingServiceConfig
	logger         *zap.Logger
	now            func() time.Time
}

// NewListingService creates a listing service. storage may be nil, in
// which case image operations fail with ErrStorageDisabled.
func NewListingService(
	productRepo auction.ProductRepository,
	storage ImageStorage,
	config ListingServiceConfig,
	logger *zap.Logger,
) *ListingService {
	if config.QuoteSteps <= 0 {
		config.QuoteSteps = 5
	}
	return &ListingService{
		productRepo: productRepo,
		storage:     storage,
		config:      config,
		logger:      logger,
		now:         time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ListingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *ListingService) publishDomainEvents(ctx context.Context, p *auction.Product) {
	publishProductEvents(ctx, s.eventPublisher, p)
}

func publishProductEvents(ctx context.Context, publisher shared.EventPublisher, p *auction.Product) {
	if publisher == nil {
		return
	}
	events := p.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = publisher.Publish(ctx, events...)
	p.ClearDomainEvents()
}

func (s *ListingService) ownedProduct(ctx context.Context, sellerID, productID uuid.UUID) (*auction.Product, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.SellerID != sellerID {
		return nil, ErrNotOwner
	}
	return p, nil
}

// CreateProduct creates a draft listing
func (s *ListingService) CreateProduct(ctx context.Context, sellerID uuid.UUID, input ProductInput) (*ProductResponse, error) {
	now := s.now()
	p, err := auction.NewProduct(sellerID, input.details(), s.config.Policy, now)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, p)

	s.logger.Info("Product created",
		zap.String("product_id", p.ID.String()),
		zap.String("seller_id", sellerID.String()))
	resp := toProductResponse(p, now)
	return &resp, nil
}

// UpdateProduct edits a draft, or an active listing nobody has bid on
func (s *ListingService) UpdateProduct(ctx context.Context, sellerID, productID uuid.UUID, input ProductInput) (*ProductResponse, error) {
	p, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := p.Update(input.details(), s.config.Policy, now); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := toProductResponse(p, now)
	return &resp, nil
}

// PublishProduct opens a draft for bidding
func (s *ListingService) PublishProduct(ctx context.Context, sellerID, productID uuid.UUID) (*ProductResponse, error) {
	p, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := p.Publish(now); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, p)

	s.logger.Info("Product published",
		zap.String("product_id", p.ID.String()),
		zap.Time("ends_at", p.EndsAt))
	resp := toProductResponse(p, now)
	return &resp, nil
}

// CancelProduct withdraws a listing without bids
func (s *ListingService) CancelProduct(ctx context.Context, sellerID, productID uuid.UUID, reason string) (*ProductResponse, error) {
	p, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := p.Cancel(reason, now); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, p)
	resp := toProductResponse(p, now)
	return &resp, nil
}

// DeleteProduct removes a draft or cancelled listing and its images
func (s *ListingService) DeleteProduct(ctx context.Context, sellerID, productID uuid.UUID) error {
	p, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return err
	}
	if !p.CanDelete() {
		return ErrProductNotDeletable
	}
	if err := s.productRepo.Delete(ctx, p.ID); err != nil {
		return err
	}
	if s.storage != nil {
		for _, key := range p.ImageKeys {
			if err := s.storage.DeleteObject(ctx, key); err != nil {
				s.logger.Warn("Failed to delete product image",
					zap.String("product_id", p.ID.String()),
					zap.String("key", key),
					zap.Error(err))
			}
		}
	}
	s.logger.Info("Product deleted", zap.String("product_id", p.ID.String()))
	return nil
}

// ModerateProduct lets an admin force-cancel a listing, bids or not
func (s *ListingService) ModerateProduct(ctx context.Context, adminID, productID uuid.UUID, reason string) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := p.Moderate(reason, now); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, p)

	s.logger.Warn("Product moderated",
		zap.String("product_id", p.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("reason", p.CancelReason))
	resp := toProductResponse(p, now)
	return &resp, nil
}

func imageKeyPrefix(productID uuid.UUID) string {
	return "products/" + productID.String() + "/"
}

// RequestImageUpload returns a presigned PUT URL for a new image. The key
// only becomes part of the listing after AttachImage.
func (s *ListingService) RequestImageUpload(ctx context.Context, sellerID, productID uuid.UUID, input ImageUploadInput) (*ImageUploadResult, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedImage
	}

	p, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	if p.Status.IsClosed() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot change images on a closed product")
	}
	if len(p.ImageKeys) >= auction.MaxProductImages {
		return nil, auction.ErrTooManyImages
	}

	key := imageKeyPrefix(p.ID) + uuid.New().String() + ext
	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, key, contentType)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Image upload URL issued",
		zap.String("product_id", p.ID.String()),
		zap.String("key", key),
		zap.String("filename", input.Filename))
	return &ImageUploadResult{Key: key, UploadURL: url, Method: "PUT", ExpiresAt: expiresAt}, nil
}

// AttachImage adds an uploaded object to the gallery
func (s *ListingService) AttachImage(ctx context.Context, sellerID, productID uuid.UUID, key string) (*ProductResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	if !strings.HasPrefix(key, imageKeyPrefix(productID)) {
		return nil, ErrImageKeyMismatch
	}
	p, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}

	exists, err := s.storage.ObjectExists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrImageNotUploaded
	}

	if err := p.AttachImage(key); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.withImageURLs(ctx, p, s.now()), nil
}

// RemoveImage detaches an image and deletes the stored object
func (s *ListingService) RemoveImage(ctx context.Context, sellerID, productID uuid.UUID, key string) (*ProductResponse, error) {
	p, err := s.ownedProduct(ctx, sellerID, productID)
	if err != nil {
		return nil, err
	}
	if err := p.RemoveImage(key); err != nil {
		return nil, err
	}
	if err := s.productRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	if s.storage != nil {
		if err := s.storage.DeleteObject(ctx, key); err != nil {
			s.logger.Warn("Failed to delete product image", zap.String("key", key), zap.Error(err))
		}
	}
	return s.withImageURLs(ctx, p, s.now()), nil
}

func (s *ListingService) productFilter(query ProductQuery) (auction.ProductFilter, error) {
	filter := auction.NewProductFilter().
		WithKeyword(strings.TrimSpace(query.Search)).
		WithCategory(strings.ToLower(strings.TrimSpace(query.Category)))
	if query.Page > 0 || query.PageSize > 0 {
		filter = filter.WithPagination(max(query.Page, 1), query.PageSize)
	}
	if query.SortBy != "" {
		filter = filter.WithSorting(query.SortBy, query.SortOrder)
	}
	if query.Status != "" {
		status := auction.ProductStatus(query.Status)
		if !status.IsValid() {
			return filter, shared.NewDomainError("INVALID_INPUT", "Unknown product status")
		}
		filter = filter.WithStatus(status)
	}
	if query.SellerID != nil {
		filter = filter.WithSeller(*query.SellerID)
	}
	return filter, nil
}

func (s *ListingService) list(ctx context.Context, filter auction.ProductFilter) (shared.Paginated[ProductListItem], error) {
	products, total, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductListItem]{}, err
	}
	now := s.now()
	items := make([]ProductListItem, len(products))
	for i, p := range products {
		items[i] = toProductListItem(p, now)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.Limit()), nil
}

// ListProducts is the public catalog. It shows active listings unless
// another public status is requested; drafts are never listed.
func (s *ListingService) ListProducts(ctx context.Context, query ProductQuery) (shared.Paginated[ProductListItem], error) {
	if query.Status == "" {
		query.Status = string(auction.ProductStatusActive)
	}
	if query.Status == string(auction.ProductStatusDraft) {
		return shared.Paginated[ProductListItem]{}, shared.NewDomainError("INVALID_INPUT", "Draft products are not public")
	}
	filter, err := s.productFilter(query)
	if err != nil {
		return shared.Paginated[ProductListItem]{}, err
	}
	return s.list(ctx, filter)
}

// ListMyProducts lists the seller's own listings in any status
func (s *ListingService) ListMyProducts(ctx context.Context, sellerID uuid.UUID, query ProductQuery) (shared.Paginated[ProductListItem], error) {
	query.SellerID = &sellerID
	filter, err := s.productFilter(query)
	if err != nil {
		return shared.Paginated[ProductListItem]{}, err
	}
	if query.SortBy == "" {
		filter = filter.WithSorting("created_at", "desc")
	}
	return s.list(ctx, filter)
}

// GetProduct returns the listing with a pricing quote and image URLs.
// Drafts are visible to their seller only.
func (s *ListingService) GetProduct(ctx context.Context, productID uuid.UUID, viewerID *uuid.UUID) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Status == auction.ProductStatusDraft && (viewerID == nil || *viewerID != p.SellerID) {
		return nil, shared.ErrNotFound
	}
	now := s.now()
	resp := s.withImageURLs(ctx, p, now)
	if !p.Status.IsClosed() {
		quote := p.Quote(p.MinimumNextBid(), s.config.QuoteSteps, now)
		resp.Quote = &quote
	}
	return resp, nil
}

func (s *ListingService) withImageURLs(ctx context.Context, p *auction.Product, now time.Time) *ProductResponse {
	resp := toProductResponse(p, now)
	if s.storage == nil {
		return &resp
	}
	for i := range resp.Images {
		url, _, err := s.storage.GenerateViewURL(ctx, resp.Images[i].Key)
		if err != nil {
			s.logger.Warn("Failed to sign image URL", zap.String("key", resp.Images[i].Key), zap.Error(err))
			continue
		}
		resp.Images[i].URL = url
	}
	return &resp
}

// isRetryable reports whether a write lost a race with a concurrent writer
func isRetryable(err error) bool {
	return errors.Is(err, shared.ErrConcurrencyConflict) || errors.Is(err, shared.ErrAlreadyExists)
}
