package catalog_repo

import (
	"quotis/internal/domain/catalogs/state"
	"quotis/internal/infrastructure/storage/postgres"
)

const stateTable = "cat_states"

// StateRepo implements state.Repository.
type StateRepo struct {
	*BaseCatalogRepo[*state.State]
}

var _ state.Repository = (*StateRepo)(nil)

// NewStateRepo creates a new state repository.
func NewStateRepo(txm *postgres.TxManager) *StateRepo {
	return &StateRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			stateTable,
			postgres.ExtractDBColumns[state.State](),
			func() *state.State { return &state.State{} },
		),
	}
}
