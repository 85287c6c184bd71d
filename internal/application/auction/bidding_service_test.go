package auction

import (
	"context"
	"testing"
	"time"

	"github.com/bidhouse/backend/internal/domain/auction"
	"github.com/bidhouse/backend/internal/domain/identity"
	"github.com/bidhouse/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type biddingFixture struct {
	svc      *BiddingService
	products *memProductRepo
	users    *memUserRepo
	recorder *countingRecorder
	events   *recordingPublisher
	product  *auction.Product
}

func newBiddingFixture(t *testing.T) *biddingFixture {
	t.Helper()
	products := newMemProductRepo()
	users := &memUserRepo{users: make(map[uuid.UUID]*identity.User)}
	svc := NewBiddingService(products, &memBidRepo{products: products}, users, DefaultBiddingServiceConfig(), zap.NewNop())
	recorder := &countingRecorder{}
	events := &recordingPublisher{}
	svc.SetRecorder(recorder)
	svc.SetEventPublisher(events)

	now := time.Now()
	p, err := auction.NewProduct(uuid.New(), auction.ProductDetails{
		Title:            "Guitar",
		StartingPrice:    decimal.NewFromInt(100),
		BidIntervalPrice: decimal.NewFromInt(10),
		CommissionRate:   decimalPtr(5),
		EndsAt:           now.Add(time.Hour),
	}, auction.ListingPolicy{}, now)
	require.NoError(t, err)
	require.NoError(t, p.Publish(now))
	p.ClearDomainEvents()
	require.NoError(t, products.Create(context.Background(), p))

	return &biddingFixture{svc: svc, products: products, users: users, recorder: recorder, events: events, product: p}
}

func (f *biddingFixture) addUser(t *testing.T, username string, role identity.Role, verified bool) uuid.UUID {
	t.Helper()
	u, err := identity.NewUser(username+"@example.com", username, "password123", role)
	require.NoError(t, err)
	if verified {
		require.NoError(t, u.VerifyEmail(time.Now()))
	}
	f.users.users[u.ID] = u
	return u.ID
}

func (f *biddingFixture) bid(buyer uuid.UUID, amount string) (*PlaceBidResult, error) {
	return f.svc.PlaceBid(context.Background(), PlaceBidInput{
		ProductID: f.product.ID,
		BidderID:  buyer,
		Amount:    decimal.RequireFromString(amount),
	})
}

func TestBiddingService_PlaceBid(t *testing.T) {
	f := newBiddingFixture(t)
	alice := f.addUser(t, "alice", identity.RoleBuyer, true)
	bob := f.addUser(t, "bob1", identity.RoleBuyer, true)

	first, err := f.bid(alice, "100")
	require.NoError(t, err)
	assert.True(t, first.Bid.Commission.Equal(decimal.NewFromInt(5)))
	assert.True(t, first.Bid.TotalPayable.Equal(decimal.NewFromInt(105)))
	assert.True(t, first.MinimumNextBid.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, 1, first.BidCount)

	_, err = f.bid(bob, "105")
	assert.Equal(t, "BID_TOO_LOW", codeOf(t, err))

	_, err = f.bid(alice, "150")
	assert.ErrorIs(t, err, auction.ErrAlreadyLeading)

	second, err := f.bid(bob, "117.35")
	require.NoError(t, err)
	assert.True(t, second.Bid.Commission.Equal(decimal.RequireFromString("5.87")))
	assert.Equal(t, 2, second.BidCount)

	assert.Equal(t, []string{auction.EventTypeBidPlaced, auction.EventTypeBidPlaced, auction.EventTypeOutbid}, f.events.types)
	assert.Equal(t, []string{"BID_TOO_LOW", "ALREADY_LEADING"}, f.recorder.rejected)
}

func TestBiddingService_BidderChecks(t *testing.T) {
	f := newBiddingFixture(t)
	seller := f.addUser(t, "seller", identity.RoleSeller, true)
	unverified := f.addUser(t, "newbie", identity.RoleBuyer, false)
	suspended := f.addUser(t, "banned", identity.RoleBuyer, true)
	require.NoError(t, f.users.users[suspended].Suspend("abuse"))

	_, err := f.bid(seller, "100")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = f.bid(unverified, "100")
	assert.ErrorIs(t, err, identity.ErrEmailNotVerified)

	_, err = f.bid(suspended, "100")
	assert.ErrorIs(t, err, identity.ErrUserSuspended)

	_, err = f.bid(uuid.New(), "100")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestBiddingService_AuctionWindow(t *testing.T) {
	f := newBiddingFixture(t)
	buyer := f.addUser(t, "late", identity.RoleBuyer, true)

	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := f.bid(buyer, "100")
	assert.ErrorIs(t, err, auction.ErrAuctionClosed)

	_, err = f.bid(buyer, "100.001")
	assert.Error(t, err)
}

func TestBiddingService_RetryRevalidates(t *testing.T) {
	f := newBiddingFixture(t)
	alice := f.addUser(t, "alice", identity.RoleBuyer, true)
	rival := uuid.New()

	// A rival bid lands between our load and our write
	f.products.beforeBid = func() {
		p, err := f.products.FindByID(context.Background(), f.product.ID)
		require.NoError(t, err)
		_, err = p.PlaceBid(rival, decimal.NewFromInt(110), time.Now())
		require.NoError(t, err)
		require.NoError(t, f.products.Update(context.Background(), p))
	}

	_, err := f.bid(alice, "110")
	assert.Equal(t, "BID_TOO_LOW", codeOf(t, err))
	assert.Equal(t, 1, f.recorder.retried)
}

func TestBiddingService_RetrySucceeds(t *testing.T) {
	f := newBiddingFixture(t)
	alice := f.addUser(t, "alice", identity.RoleBuyer, true)
	rival := uuid.New()

	f.products.beforeBid = func() {
		p, err := f.products.FindByID(context.Background(), f.product.ID)
		require.NoError(t, err)
		_, err = p.PlaceBid(rival, decimal.NewFromInt(110), time.Now())
		require.NoError(t, err)
		require.NoError(t, f.products.Update(context.Background(), p))
	}

	result, err := f.bid(alice, "200")
	require.NoError(t, err)
	assert.Equal(t, 2, result.BidCount)
	assert.Contains(t, f.events.types, auction.EventTypeOutbid)

	stored, err := f.products.FindByID(context.Background(), f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, *stored.CurrentBidderID)
	assert.True(t, stored.CurrentBidPrice.Equal(decimal.NewFromInt(200)))
}

func TestBiddingService_RetriesExhausted(t *testing.T) {
	f := newBiddingFixture(t)
	alice := f.addUser(t, "alice", identity.RoleBuyer, true)
	f.products.forceConflicts = 100

	_, err := f.bid(alice, "100")
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Equal(t, 4, f.products.bidWrites)
	assert.Equal(t, 3, f.recorder.retried)
	assert.Equal(t, []string{"CONCURRENCY_CONFLICT"}, f.recorder.rejected)
}

func TestBiddingService_QuoteAndLedger(t *testing.T) {
	ctx := context.Background()
	f := newBiddingFixture(t)
	alice := f.addUser(t, "alice", identity.RoleBuyer, true)
	bob := f.addUser(t, "bob1", identity.RoleBuyer, true)

	quote, err := f.svc.GetQuote(ctx, f.product.ID, nil)
	require.NoError(t, err)
	assert.True(t, quote.MinimumNextBid.Equal(decimal.NewFromInt(100)))
	require.Len(t, quote.Steps, 5)
	assert.True(t, quote.Steps[4].Equal(decimal.NewFromInt(140)))
	assert.True(t, quote.AcceptsBids)

	amount := decimal.NewFromInt(250)
	quote, err = f.svc.GetQuote(ctx, f.product.ID, &amount)
	require.NoError(t, err)
	assert.True(t, quote.TotalPayable.Equal(decimal.RequireFromString("262.5")))

	bad := decimal.RequireFromString("-1")
	_, err = f.svc.GetQuote(ctx, f.product.ID, &bad)
	assert.ErrorIs(t, err, auction.ErrInvalidAmount)

	_, err = f.bid(alice, "100")
	require.NoError(t, err)
	_, err = f.bid(bob, "110")
	require.NoError(t, err)

	bids, err := f.svc.ListProductBids(ctx, f.product.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), bids.Total)

	mine, err := f.svc.ListMyBids(ctx, alice, 1, 10)
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, auction.StandingOutbid, mine.Items[0].Standing)
	assert.Equal(t, "Guitar", mine.Items[0].ProductTitle)

	theirs, err := f.svc.ListMyBids(ctx, bob, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, auction.StandingLeading, theirs.Items[0].Standing)
}
