package auction

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testPolicy = auction.ListingPolicy{
	MinDuration:           time.Hour,
	MaxDuration:           30 * 24 * time.Hour,
	DefaultCommissionRate: decimal.NewFromInt(5),
}

func newListingFixture() (*ListingService, *memProductRepo, *fakeStorage) {
	repo := newMemProductRepo()
	storage := newFakeStorage()
	svc := NewListingService(repo, storage, ListingServiceConfig{Policy: testPolicy, QuoteSteps: 3}, zap.NewNop())
	return svc, repo, storage
}

func validInput() ProductInput {
	return ProductInput{
		Title:            "Vintage Camera",
		Description:      "Working condition",
		Category:         "Cameras",
		StartingPrice:    decimal.NewFromInt(100),
		BidIntervalPrice: decimal.NewFromInt(10),
		EndsAt:           time.Now().Add(48 * time.Hour),
	}
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	de, ok := shared.IsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	return de.Code
}

func TestListingService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newListingFixture()
	events := &recordingPublisher{}
	svc.SetEventPublisher(events)
	seller := uuid.New()

	resp, err := svc.CreateProduct(ctx, seller, validInput())
	require.NoError(t, err)
	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, "cameras", resp.Category)
	assert.True(t, resp.CommissionRate.Equal(decimal.NewFromInt(5)), "default commission applies")
	assert.Nil(t, resp.CurrentBidPrice)
	assert.Equal(t, []string{auction.EventTypeProductCreated}, events.types)

	rate := decimal.RequireFromString("7.5")
	in := validInput()
	in.CommissionRate = &rate
	resp, err = svc.CreateProduct(ctx, seller, in)
	require.NoError(t, err)
	assert.True(t, resp.CommissionRate.Equal(rate))

	in = validInput()
	in.CommissionRate = &decimal.Zero
	resp, err = svc.CreateProduct(ctx, seller, in)
	require.NoError(t, err)
	assert.True(t, resp.CommissionRate.IsZero(), "an explicit zero rate is not replaced by the default")

	short := validInput()
	short.EndsAt = time.Now().Add(10 * time.Minute)
	_, err = svc.CreateProduct(ctx, seller, short)
	assert.Equal(t, "INVALID_DURATION", codeOf(t, err))

	badPrice := validInput()
	badPrice.StartingPrice = decimal.RequireFromString("10.001")
	_, err = svc.CreateProduct(ctx, seller, badPrice)
	assert.Equal(t, "INVALID_STARTING_PRICE", codeOf(t, err))
}

func TestListingService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newListingFixture()
	seller := uuid.New()

	created, err := svc.CreateProduct(ctx, seller, validInput())
	require.NoError(t, err)

	_, err = svc.PublishProduct(ctx, uuid.New(), created.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	in := validInput()
	in.Title = "Vintage Camera (boxed)"
	updated, err := svc.UpdateProduct(ctx, seller, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Vintage Camera (boxed)", updated.Title)

	published, err := svc.PublishProduct(ctx, seller, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "active", published.Status)

	err = svc.DeleteProduct(ctx, seller, created.ID)
	assert.ErrorIs(t, err, ErrProductNotDeletable)

	// A bid freezes the listing
	p, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	_, err = p.PlaceBid(uuid.New(), decimal.NewFromInt(100), time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, p))

	_, err = svc.UpdateProduct(ctx, seller, created.ID, validInput())
	assert.ErrorIs(t, err, auction.ErrHasBids)
	_, err = svc.CancelProduct(ctx, seller, created.ID, "changed my mind")
	assert.ErrorIs(t, err, auction.ErrHasBids)

	// Admin moderation ignores bids
	moderated, err := svc.ModerateProduct(ctx, uuid.New(), created.ID, "counterfeit")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", moderated.Status)
	assert.Equal(t, "counterfeit", moderated.CancelReason)

	require.NoError(t, svc.DeleteProduct(ctx, seller, created.ID))
	_, err = repo.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListingService_Images(t *testing.T) {
	ctx := context.Background()
	svc, _, storage := newListingFixture()
	seller := uuid.New()
	created, err := svc.CreateProduct(ctx, seller, validInput())
	require.NoError(t, err)

	_, err = svc.RequestImageUpload(ctx, seller, created.ID, ImageUploadInput{Filename: "a.pdf", ContentType: "application/pdf"})
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	upload, err := svc.RequestImageUpload(ctx, seller, created.ID, ImageUploadInput{Filename: "front.png", ContentType: "image/png"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(upload.Key, "products/"+created.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(upload.Key, ".png"))
	assert.Equal(t, "PUT", upload.Method)

	_, err = svc.AttachImage(ctx, seller, created.ID, upload.Key)
	assert.ErrorIs(t, err, ErrImageNotUploaded)

	storage.uploaded[upload.Key] = true
	resp, err := svc.AttachImage(ctx, seller, created.ID, upload.Key)
	require.NoError(t, err)
	require.Len(t, resp.Images, 1)
	assert.Contains(t, resp.Images[0].URL, "sig=get")

	_, err = svc.AttachImage(ctx, seller, created.ID, "products/"+uuid.New().String()+"/x.png")
	assert.ErrorIs(t, err, ErrImageKeyMismatch)

	resp, err = svc.RemoveImage(ctx, seller, created.ID, upload.Key)
	require.NoError(t, err)
	assert.Empty(t, resp.Images)
	assert.Equal(t, []string{upload.Key}, storage.deleted)
}

func TestListingService_StorageDisabled(t *testing.T) {
	repo := newMemProductRepo()
	svc := NewListingService(repo, nil, ListingServiceConfig{Policy: testPolicy}, zap.NewNop())
	_, err := svc.RequestImageUpload(context.Background(), uuid.New(), uuid.New(), ImageUploadInput{ContentType: "image/png"})
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestListingService_Catalog(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newListingFixture()
	seller := uuid.New()

	draft, err := svc.CreateProduct(ctx, seller, validInput())
	require.NoError(t, err)
	live, err := svc.CreateProduct(ctx, seller, validInput())
	require.NoError(t, err)
	_, err = svc.PublishProduct(ctx, seller, live.ID)
	require.NoError(t, err)

	page, err := svc.ListProducts(ctx, ProductQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, live.ID, page.Items[0].ID)
	assert.True(t, page.Items[0].MinimumNextBid.Equal(decimal.NewFromInt(100)))

	_, err = svc.ListProducts(ctx, ProductQuery{Status: "draft"})
	assert.Equal(t, "INVALID_INPUT", codeOf(t, err))

	mine, err := svc.ListMyProducts(ctx, seller, ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)

	_, err = svc.GetProduct(ctx, draft.ID, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	own, err := svc.GetProduct(ctx, draft.ID, &seller)
	require.NoError(t, err)
	assert.Equal(t, "draft", own.Status)

	detail, err := svc.GetProduct(ctx, live.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, detail.Quote)
	assert.Len(t, detail.Quote.Steps, 3)
	assert.True(t, detail.Quote.TotalPayable.Equal(decimal.NewFromInt(105)))
	assert.False(t, detail.Countdown.Expired)
}
