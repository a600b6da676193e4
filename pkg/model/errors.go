package model

import "github.com/pkg/errors"

var (
	ErrNodeNameMustBeSet    = errors.New("node name must be set")
	ErrNodeFuncMustBeSet    = errors.New("node function must be set")
	ErrDataSetNameMustBeSet = errors.New("dataset name must be set")
	ErrDuplicateDataSet     = errors.New("duplicate dataset name")
	ErrDuplicateNode        = errors.New("duplicate node name")
	ErrDuplicateOutput      = errors.New("dataset is produced by more than one node")
	ErrCycle                = errors.New("pipeline contains a cycle")
	ErrUnknownNode          = errors.New("unknown node")
)
