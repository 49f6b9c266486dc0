// Package migration creates the schema on startup so the service is usable
// out of the box on any of the supported dialects.
package migration

import (
	ajustedomain "github.com/fgonzalez-GIT/sigesda-backend/internal/ajuste/domain"
	categoriadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/categoria/domain"
	cuotadomain "github.com/fgonzalez-GIT/sigesda-backend/internal/cuota/domain"
	exenciondomain "github.com/fgonzalez-GIT/sigesda-backend/internal/exencion/domain"
	historialdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/historial/domain"
	regladomain "github.com/fgonzalez-GIT/sigesda-backend/internal/regla/domain"
	rollbackdomain "github.com/fgonzalez-GIT/sigesda-backend/internal/rollback/domain"
	sociodomain "github.com/fgonzalez-GIT/sigesda-backend/internal/socio/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&sociodomain.Socio{},
		&categoriadomain.Categoria{},
		&regladomain.ReglaDescuento{},
		&exenciondomain.Exencion{},
		&ajustedomain.Ajuste{},
		&historialdomain.Entrada{},
		&cuotadomain.Cuota{},
		&cuotadomain.CuotaItem{},
		&rollbackdomain.CuotaBackup{},
	)
}
