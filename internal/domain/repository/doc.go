// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente. Las implementaciones concretas viven en
// internal/store/pg.
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Not-found se señala con ErrNotFound, nunca con (nil, nil)
//   - Violaciones de unicidad se mapean a ErrConflict
//   - Errores de dominio están en errors.go
package repository
