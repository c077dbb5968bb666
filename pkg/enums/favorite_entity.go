package enums

// FavoriteEntity names the kinds of records a user can favorite.
type FavoriteEntity string

const (
	FavoriteProvider FavoriteEntity = "provider"
	FavoriteEvent    FavoriteEntity = "event"
	FavoritePackage  FavoriteEntity = "package"
)

func (e FavoriteEntity) IsValid() bool {
	switch e {
	case FavoriteProvider, FavoriteEvent, FavoritePackage:
		return true
	}
	return false
}
