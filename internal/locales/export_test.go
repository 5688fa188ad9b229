package locales

var (
	TranslatableFiles  = translatableFiles
	DirNameForLocale   = dirNameForLocale
	GetPOTCreationDate = getPOTCreationDate
)
