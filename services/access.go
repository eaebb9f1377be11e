package services

import (
	"context"
	"errors"

	"papermerge/repositories"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// nodePerm evaluates whether the actor may perform codename on the node.
// Superusers always may. Owners always may; ownership is resolved at the
// nearest ancestor carrying an ownership row, so owning a subtree root
// covers everything below it. Everyone else needs a shared-node grant on
// the node or one of its ancestors whose role carries the codename.
func nodePerm(
	ctx context.Context,
	nodes repositories.NodeRepository,
	shared repositories.SharedNodeRepository,
	actor Actor,
	nodeID uuid.UUID,
	codename string,
) (bool, error) {
	if actor.User.IsSuperuser {
		return true, nil
	}
	own, err := nodes.OwnerOf(ctx, nil, nodeID)
	if err == nil && actor.Owns(own) {
		return true, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, errInternal("failed to resolve node owner", err)
	}

	chain, err := nodes.Ancestors(ctx, nil, nodeID, true)
	if err != nil {
		return false, errInternal("failed to load ancestors", err)
	}
	ids := make([]uuid.UUID, len(chain))
	for i, n := range chain {
		ids[i] = n.ID
	}
	ok, err := shared.HasGrant(ctx, nil, ids, actor.User.ID, actor.GroupIDs, codename)
	if err != nil {
		return false, errInternal("failed to check shared grants", err)
	}
	return ok, nil
}

// requireNodePerm is nodePerm with the deny turned into a 403.
func requireNodePerm(
	ctx context.Context,
	nodes repositories.NodeRepository,
	shared repositories.SharedNodeRepository,
	actor Actor,
	nodeID uuid.UUID,
	codename string,
) error {
	ok, err := nodePerm(ctx, nodes, shared, actor, nodeID, codename)
	if err != nil {
		return err
	}
	if !ok {
		return errForbidden("you do not have access to this node")
	}
	return nil
}
