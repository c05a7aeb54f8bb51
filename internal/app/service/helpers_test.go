package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/ikkim/storefront-backend/pkg/shopapi"
	"github.com/ikkim/storefront-backend/pkg/shopapi/shopapitest"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

func setupCollections(t *testing.T) (repository.CollectionRepository, *UserCollection[model.LineItem], *UserCollection[model.WishlistEntry]) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := repository.NewCollectionRepository(testDB)
	return repo,
		NewUserCollection[model.LineItem](repo, CollectionUserCarts),
		NewUserCollection[model.WishlistEntry](repo, CollectionUserWishlists)
}

func setupShop(t *testing.T) (*shopapi.Client, *shopapitest.Server) {
	fake := shopapitest.NewServer(t)
	client, err := shopapi.NewClient(shopapi.Config{BaseURL: fake.BaseURL(), Timeout: 2 * time.Second})
	require.NoError(t, err)
	return client, fake
}

type sessionFixture struct {
	api       *shopapi.Client
	fake      *shopapitest.Server
	repo      repository.CollectionRepository
	carts     *UserCollection[model.LineItem]
	wishlists *UserCollection[model.WishlistEntry]
	sessions  SessionService
}

func setupSessionFixture(t *testing.T, notifier Notifier) *sessionFixture {
	api, fake := setupShop(t)
	repo, carts, wishlists := setupCollections(t)
	return &sessionFixture{
		api:       api,
		fake:      fake,
		repo:      repo,
		carts:     carts,
		wishlists: wishlists,
		sessions:  NewSessionService(api, carts, wishlists, notifier, testJWTSecret, time.Hour),
	}
}

func (f *sessionFixture) login(t *testing.T, username string, role model.UserRole) *Session {
	f.fake.AddUser(username, "secret1", role)
	result, err := f.sessions.Login(context.Background(), username, "secret1")
	require.NoError(t, err)
	return result.Session
}

func product(id uint, name string, price float64, stock int) model.Product {
	return model.Product{ID: id, Name: name, Price: model.Money(price), Stock: stock, IsActive: true}
}

// failingRepository fails every call.
type failingRepository struct{}

func (failingRepository) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func (failingRepository) Save(context.Context, string, []byte) error {
	return errors.New("backend down")
}
