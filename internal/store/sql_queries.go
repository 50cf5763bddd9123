// SPDX-License-Identifier: Apache-2.0

package store

// Credential rows are a plain key/value set, so the queries are static.
// The cache repository builds its queries with squirrel instead because
// they carry dynamic filters and batch inserts.
const (
	upsertCredential = `
		INSERT INTO credentials (key, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at;`

	getCredential = `
		SELECT value
		FROM credentials
		WHERE key = $1;`

	deleteAllCredentials = `
		DELETE FROM credentials
		WHERE key IN ($1, $2, $3);`
)

// Keys of the three persisted credential entries.
const (
	credKeyAccessToken  = "access_token"
	credKeyRefreshToken = "refresh_token"
	credKeyUser         = "user"
)
