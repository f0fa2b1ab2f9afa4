package collections

// Short names for the collection definitions supported out of the box, mapped
// to the stems of their definition files in the remote repository.
var fileAliases = map[string]string{
	"CESM1-LE":        "cesm1-le-collection",
	"GLADE-CMIP5":     "glade-cmip5-collection",
	"GLADE-CMIP6":     "glade-cmip6-collection",
	"GLADE-RDA-ERA5":  "glade-rda-era5-collection",
	"GLADE-GMET":      "glade-gmet-collection",
	"MPI-GE":          "mpige-collection",
	"AWS-CESM1-LE":    "aws-cesm1-le-collection",
	"GLADE-NA-CORDEX": "glade-na-cordex-collection",
	"mistral-CMIP5":   "mistral-cmip5-collection",
	"mistral-CMIP6":   "mistral-cmip6-collection",
	"mistral-MPIGE":   "mistral-mpige-collection",
}

// human-readable descriptions for each alias
var fileDescriptions = map[string]string{
	"CESM1-LE":        "Community Earth System Model Large Ensemble (CESM LENS) data holdings @ NCAR",
	"GLADE-CMIP5":     "Coupled Model Intercomparison Project - Phase 5 data holdings on the CMIP Analysis Platform @ NCAR",
	"GLADE-CMIP6":     "Coupled Model Intercomparison Project - Phase 6 data holdings on the CMIP Analysis Platform @ NCAR",
	"GLADE-RDA-ERA5":  "ECWMF ERA5 Reanalysis data holdings @ NCAR",
	"GLADE-GMET":      "The Gridded Meteorological Ensemble Tool data holdings",
	"MPI-GE":          "The Max Planck Institute for Meteorology (MPI-M) Grand Ensemble (MPI-GE) data holdings",
	"AWS-CESM1-LE":    "Community Earth System Model Large Ensemble (CESM LENS) data holdings publicly available on Amazon S3 (us-west-2 region)",
	"GLADE-NA-CORDEX": "The North American CORDEX program data holdings @ NCAR",
	"mistral-CMIP5":   "Coupled Model Intercomparison Project - Phase 5 data holdings @ dkrz.mistral",
	"mistral-CMIP6":   "Coupled Model Intercomparison Project - Phase 6 data holdings @ dkrz.mistral",
	"mistral-MPIGE":   "Max Planck Institute for Meteorology Grand Ensemble (MPI-ESM GE) CMORized data holdings @ dkrz.mistral",
}

// aliases in the order they are reported by ListAvailable
var orderedAliases = []string{
	"CESM1-LE",
	"GLADE-CMIP5",
	"GLADE-CMIP6",
	"GLADE-RDA-ERA5",
	"GLADE-GMET",
	"MPI-GE",
	"AWS-CESM1-LE",
	"GLADE-NA-CORDEX",
	"mistral-CMIP5",
	"mistral-CMIP6",
	"mistral-MPIGE",
}
