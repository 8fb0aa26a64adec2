package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

// FavoriteService implements ports.FavoritePort.
type FavoriteService struct {
	c *Client
}

// Favorites returns the favorite endpoints.
func (c *Client) Favorites() *FavoriteService {
	return &FavoriteService{c: c}
}

// List fetches every favorite, including ones whose item no longer exists.
func (s *FavoriteService) List(ctx context.Context) ([]models.Favorite, error) {
	return call[[]models.Favorite](ctx, s.c, "favorites.list", http.MethodGet, "/favorites", nil, nil)
}

// Add favorites an item.
func (s *FavoriteService) Add(ctx context.Context, ref models.ItemRef) (*models.Favorite, error) {
	if !ref.Type.Valid() {
		return nil, fmt.Errorf("favorites.add: invalid item type %q", ref.Type)
	}
	f, err := call[models.Favorite](ctx, s.c, "favorites.add", http.MethodPost, "/favorites", nil,
		protocol.AddFavoriteRequest{ItemType: ref.Type, ItemID: ref.ID})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Remove deletes a favorite by its own id.
func (s *FavoriteService) Remove(ctx context.Context, id int64) error {
	_, err := call[json.RawMessage](ctx, s.c, "favorites.remove", http.MethodDelete, fmt.Sprintf("/favorites/%d", id), nil, nil)
	return err
}

// Check reports whether an item is favorited.
func (s *FavoriteService) Check(ctx context.Context, ref models.ItemRef) (bool, error) {
	res, err := call[protocol.FavoriteCheck](ctx, s.c, "favorites.check", http.MethodGet,
		fmt.Sprintf("/favorites/check/%s/%d", ref.Type, ref.ID), nil, nil)
	if err != nil {
		return false, err
	}
	return res.IsFavorite, nil
}
