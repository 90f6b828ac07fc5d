package tgtg

import (
	"fmt"

	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
)

// ItemKey builds the stable identity for a (store, item) pair from the
// marketplace's own identifiers. Display names are deliberately excluded:
// they can change between polls without the offer changing identity.
func ItemKey(storeID, itemID string) string {
	return storeID + "_" + itemID
}

// Normalize converts one raw listing into a canonical Item. It fails when a
// required field is absent or malformed; the caller logs and skips the record
// so one bad listing never aborts the batch.
func Normalize(l Listing) (model.Item, error) {
	if l.Store.StoreID == "" {
		return model.Item{}, fmt.Errorf("listing missing store id")
	}
	if l.Item.ItemID == "" {
		return model.Item{}, fmt.Errorf("listing missing item id")
	}
	if l.Store.StoreName == "" {
		return model.Item{}, fmt.Errorf("listing %s missing store name", ItemKey(l.Store.StoreID, l.Item.ItemID))
	}
	if l.Item.Name == "" {
		return model.Item{}, fmt.Errorf("listing %s missing item name", ItemKey(l.Store.StoreID, l.Item.ItemID))
	}
	if l.Item.Price == nil {
		return model.Item{}, fmt.Errorf("listing %s missing price", ItemKey(l.Store.StoreID, l.Item.ItemID))
	}
	if l.ItemsAvailable < 0 {
		return model.Item{}, fmt.Errorf("listing %s has negative availability %d", ItemKey(l.Store.StoreID, l.Item.ItemID), l.ItemsAvailable)
	}
	if l.PickupLocation.Address.AddressLine == "" {
		return model.Item{}, fmt.Errorf("listing %s missing pickup address", ItemKey(l.Store.StoreID, l.Item.ItemID))
	}

	return model.Item{
		Key:   ItemKey(l.Store.StoreID, l.Item.ItemID),
		Store: l.Store.StoreName,
		Name:  l.Item.Name,
		Price: model.Price{
			MinorUnits: l.Item.Price.MinorUnits,
			Decimals:   l.Item.Price.Decimals,
			Code:       l.Item.Price.Code,
		},
		Available: l.ItemsAvailable,
		Address:   l.PickupLocation.Address.AddressLine,
	}, nil
}
