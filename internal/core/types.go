package core

import "kincore/pkg/domain"

type (
	Person             = domain.Person
	Position           = domain.Position
	Visual             = domain.Visual
	Gender             = domain.Gender
	Edge               = domain.Edge
	EdgeType           = domain.EdgeType
	PairSet            = domain.PairSet
	Camera             = domain.Camera
	Settings           = domain.Settings
	DisplayPreferences = domain.DisplayPreferences
	NodeStyle          = domain.NodeStyle
	Snapshot           = domain.Snapshot
	RenderSurface      = domain.RenderSurface
	NodeData           = domain.NodeData
	Bounds             = domain.Bounds
	ValidationError    = domain.ValidationError
	IntegrityError     = domain.IntegrityError
	LoadFormatError    = domain.LoadFormatError
	StorageQuotaError  = domain.StorageQuotaError
	StorageWriteError  = domain.StorageWriteError
)

const (
	EdgeParent   = domain.EdgeParent
	EdgeSpouse   = domain.EdgeSpouse
	EdgeLineOnly = domain.EdgeLineOnly

	NodeStyleCircle    = domain.NodeStyleCircle
	NodeStyleRectangle = domain.NodeStyleRectangle
)
