package platform

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DirectoryRoleSource reads role assignments from the external user
// directory that the portal's account system is federated with. The
// directory keys roles by its own entity id and maps portal user ids
// through a lookup table.
type DirectoryRoleSource struct {
	db *sqlx.DB
}

func NewDirectoryRoleSource(db *sqlx.DB) *DirectoryRoleSource {
	return &DirectoryRoleSource{db: db}
}

func (s *DirectoryRoleSource) RolesByAuthor(ctx context.Context, authorID string) ([]string, error) {
	var roles []string
	query := `
		SELECT ur.roles_target_id
		FROM user__roles ur
		JOIN user__field_portal_user_id u ON u.entity_id = ur.entity_id
		WHERE u.field_portal_user_id_value = $1`
	if err := s.db.SelectContext(ctx, &roles, query, authorID); err != nil {
		return nil, err
	}
	return roles, nil
}
