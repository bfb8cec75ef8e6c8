package models

// GroupCount is the number of songs sharing one field value.
// Representative carries a value from one member of the group when the
// store was asked for it; it is not serialised.
type GroupCount struct {
	Key            string `json:"_id"`
	Count          int64  `json:"count"`
	Representative string `json:"-"`
}

// AlbumCount is a GroupCount for albums, carrying the artist of one of the
// album's songs. Which song provides the artist is up to the store.
type AlbumCount struct {
	Key    string `json:"_id"`
	Count  int64  `json:"count"`
	Artist string `json:"artist"`
}

// Statistics is computed over the whole collection; list filters never apply.
type Statistics struct {
	TotalSongs    int64        `json:"totalSongs"`
	TotalArtists  int          `json:"totalArtists"`
	TotalAlbums   int          `json:"totalAlbums"`
	TotalGenres   int          `json:"totalGenres"`
	SongsByGenre  []GroupCount `json:"songsByGenre"`
	SongsByArtist []GroupCount `json:"songsByArtist"`
	SongsByAlbum  []AlbumCount `json:"songsByAlbum"`
}
