package domain

// Image collections, used both as storage namespaces and as the first
// segment of the public image path.
const (
	ImageCollectionAds   = adsCollection
	ImageCollectionUsers = usersCollection
)

// Image is an uploaded picture as held by the blob store.
type Image struct {
	Collection  string
	OwnerID     int64
	ContentType string
	Data        []byte
}
