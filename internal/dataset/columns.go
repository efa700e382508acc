package dataset

// DefaultPath is where the joined GDP/occurrences table is expected.
const DefaultPath = "data/raw/pib-ocorrencias.csv"

// Identifier and key columns.
const (
	ColYear         = "ano"
	ColUF           = "uf"
	ColMunicipality = "municipio_agrupado"
	ColHabitants    = "Total_Habitantes"
	ColGDPPerCapita = "vl_pib_per_capta"
	ColTotalVictims = "vitimas_totais"
)

// RateSuffix is appended to a crime column for its rate per 100k inhabitants.
const RateSuffix = "_por100mil"

// TextColumns are read as strings; every other column is numeric.
var TextColumns = []string{ColUF, ColMunicipality}

// EconomicColumns are the municipal GDP components.
var EconomicColumns = []string{
	"vl_agropecuaria",
	"vl_industria",
	"vl_servicos",
	"vl_administracao",
	"vl_bruto_total",
	"vl_subsidios",
	"vl_pib",
	ColGDPPerCapita,
}

// CrimeColumns are the victim counts per crime type.
var CrimeColumns = []string{
	"vitimas_feminicidio",
	"vitimas_homicidio_doloso",
	"vitimas_tentativa_homicidio",
	ColTotalVictims,
	"vitimas_lesao_corporal_seguida_de_morte",
	"vitimas_transito_ou_decorrencia_dele",
	"vitimas_sem_indicio_de_crime",
	"vitimas_latrocinio",
	"vitimas_suicidios",
}

// DefaultFeatures are the model inputs.
var DefaultFeatures = []string{
	ColHabitants,
	ColGDPPerCapita,
	"vl_agropecuaria",
	"vl_industria",
	"vl_servicos",
}

// DefaultTarget is the regression target.
const DefaultTarget = ColTotalVictims

// RequiredColumns lists the columns Validate insists on.
func RequiredColumns() []string {
	cols := []string{ColYear, ColUF, ColMunicipality}
	cols = append(cols, DefaultFeatures...)
	return append(cols, DefaultTarget)
}

func isTextColumn(name string) bool {
	for _, c := range TextColumns {
		if c == name {
			return true
		}
	}
	return false
}
