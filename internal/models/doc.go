// Package models defines the catalogue records exchanged with the SOUNDWAVE API.
//
// The package contains two categories of types:
//
// 1. Resources returned by the API
//   - [ArtistSummary] : one row of the paginated artist listing
//   - [ArtistDetail] : an artist with its discography
//   - [Album] : an album with its cover images
//   - [Cover] : a signed URL for a stored cover image
//   - [Page] : the paginated envelope around listings
//
// 2. Requests and identity
//   - [ArtistRequest], [AlbumRequest] : create/update payloads
//   - [User] : the authenticated principal returned at login
//
// Go field names are English; JSON tags follow the wire names used by the API.
package models
