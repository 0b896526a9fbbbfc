package service

import (
	"context"

	"github.com/glebovvv/bugtrack/internal/domain"
)

// LinkBugs inserts a symmetric edge between two bugs. Linking the same pair
// again is a no-op; a bug can never link to itself. Both ends must be live.
func (s *Service) LinkBugs(ctx context.Context, bugID, relatedBugID string) (domain.Bug, domain.Bug, error) {
	if bugID == relatedBugID {
		return domain.Bug{}, domain.Bug{}, ErrSelfLink
	}

	if _, err := s.repo.GetBug(ctx, bugID); err != nil {
		return domain.Bug{}, domain.Bug{}, s.mapRepoErr(err)
	}
	if _, err := s.repo.GetBug(ctx, relatedBugID); err != nil {
		return domain.Bug{}, domain.Bug{}, s.mapRepoErr(err)
	}

	if err := s.repo.InsertBugLink(ctx, nil, bugID, relatedBugID); err != nil {
		return domain.Bug{}, domain.Bug{}, err
	}

	bug, err := s.GetBug(ctx, bugID)
	if err != nil {
		return domain.Bug{}, domain.Bug{}, err
	}
	related, err := s.GetBug(ctx, relatedBugID)
	if err != nil {
		return domain.Bug{}, domain.Bug{}, err
	}

	return bug, related, nil
}

// CreateSubBug creates a child bug under a parent: the project is inherited
// from the parent and the child joins the parent's linked set. The parent's
// ancestor chain is validated first so the hierarchy stays acyclic.
func (s *Service) CreateSubBug(ctx context.Context, parentID string, in domain.CreateBugInput, reporterID string) (domain.Bug, error) {
	parent, err := s.repo.GetBug(ctx, parentID)
	if err != nil {
		return domain.Bug{}, s.mapRepoErr(err)
	}

	// The id is fixed before the workflow runs so the in-transaction
	// ancestry walk can test the proposed child against the chain.
	childID := s.newBugID()

	in.ProjectID = parent.ProjectID
	in.ParentBug = &parentID
	in.RelatedBugs = append(in.RelatedBugs, parentID)

	return s.createBugWithID(ctx, childID, in, reporterID)
}

// parentLookup resolves a bug id to its parent pointer. Abstracted so the
// chain walk can be exercised without a store.
type parentLookup func(ctx context.Context, bugID string) (parent *string, err error)

func (s *Service) lookupParent(ctx context.Context, bugID string) (*string, error) {
	bug, err := s.repo.GetBug(ctx, bugID)
	if err != nil {
		return nil, s.mapRepoErr(err)
	}
	return bug.ParentBug, nil
}

// ancestorChainContains walks parent pointers upward from startID and
// reports whether targetID appears in the chain. A chain that revisits a
// node is itself cyclic and reported the same way, so the walk always
// terminates.
func ancestorChainContains(ctx context.Context, lookup parentLookup, startID, targetID string) (bool, error) {
	seen := make(map[string]bool)
	for cur := startID; cur != ""; {
		if cur == targetID {
			return true, nil
		}
		if seen[cur] {
			return true, nil
		}
		seen[cur] = true

		parent, err := lookup(ctx, cur)
		if err != nil {
			return false, err
		}
		if parent == nil {
			break
		}
		cur = *parent
	}
	return false, nil
}
