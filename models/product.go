package models

import "github.com/mmdatafocus/pos_sync/utils"

const (
	ProductIDKey    = "productId"
	ProductImageKey = "image"
	ProductLocalKey = "localImage"
)

// NormalizeProduct accepts "id" or "productId" and returns a copy keyed by
// productId only, plus the identifier in string form.
func NormalizeProduct(data Record) (Record, string) {
	id, raw := FirstID(data, ProductIDKey, "id")
	product := data.Clone()
	delete(product, "id")
	if id != "" {
		product[ProductIDKey] = raw
	}
	return product, id
}

// ProductLookupID resolves the product an update or delete refers to.
func ProductLookupID(data Record) string {
	id, _ := FirstID(data, ProductIDKey, "id")
	return id
}

// ProductPatch is the patch source of an update-product operation.
func ProductPatch(data Record) Record {
	return PatchFrom(data, ProductIDKey, "id")
}

// RewriteProductImage points image at the served copy of localImage unless
// image already is an absolute URL. The stored record is not modified.
func RewriteProductImage(product Record, baseURL string) Record {
	local, _ := product[ProductLocalKey].(string)
	if local == "" {
		return product
	}
	if image, _ := product[ProductImageKey].(string); utils.IsAbsoluteURL(image) {
		return product
	}
	out := product.Clone()
	out[ProductImageKey] = utils.BuildAssetURL(baseURL, local)
	return out
}
