package model

// WishlistEntry is a saved product reference without quantity, unique by product id.
type WishlistEntry struct {
	Product
}
