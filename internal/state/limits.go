package state

// Capacity limits of the kernel state blocks.
const (
	NFMAX   = 30  // surfaces, mirrored images included
	NSECMAX = 20  // sections per surface
	NBMAX   = 20  // bodies, mirrored images included
	NDMAX   = 30  // control variables
	NGMAX   = 20  // design variables
	ICONX   = 8   // control or design attachments per section
	IBX     = 120 // airfoil and body outline samples
	NSMAX   = 400 // strips
	NVMAX   = NSMAX
	NUMAX   = 5 // alpha, beta, roll rate, pitch rate, yaw rate
	NPMAX   = 30
	NCMAX   = NUMAX + NDMAX

	// NameWidth bounds entity and control names.
	NameWidth = 40
	// PathWidth bounds file names.
	PathWidth = 80
)
