package service

import (
	"context"
	"fmt"

	"plant-doctor-be/internal/repository/memory"
	"plant-doctor-be/internal/repository/specification"
	"plant-doctor-be/internal/repository/unitofwork"
	"plant-doctor-be/pkg/advisory"
)

type itemCatalog struct {
	uowFactory unitofwork.RepositoryFactory
	names      *memory.NameCache
}

// NewItemCatalog lists verified chemical and biological product names so the
// advisory synthesizer can spot products it was not handed.
func NewItemCatalog(uowFactory unitofwork.RepositoryFactory, names *memory.NameCache) advisory.Catalog {
	return &itemCatalog{uowFactory: uowFactory, names: names}
}

func (c *itemCatalog) ItemNames(ctx context.Context) ([]string, error) {
	if names, found := c.names.Get(memory.ItemNamesKey); found {
		return names, nil
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	chemical, err := uow.ChemicalProductRepository().DistinctNames(ctx, specification.Verified{})
	if err != nil {
		return nil, fmt.Errorf("failed to load chemical product names: %w", err)
	}
	biological, err := uow.BiologicalMethodRepository().DistinctNames(ctx, specification.Verified{})
	if err != nil {
		return nil, fmt.Errorf("failed to load biological method names: %w", err)
	}

	names := append(chemical, biological...)
	c.names.Save(memory.ItemNamesKey, names)
	return names, nil
}
