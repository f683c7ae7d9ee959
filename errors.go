/*
 *  errors.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes

import "errors"

var (
	// ErrEmptyData indicates input without any sequence or point
	ErrEmptyData = errors.New("tfbayes: no data to sample from")
	// ErrUnknownPrior indicates an unsupported process prior name
	ErrUnknownPrior = errors.New("tfbayes: unknown process prior")
	// ErrUnknownBackground indicates an unsupported background model name
	ErrUnknownBackground = errors.New("tfbayes: unknown background model")
	// ErrInvalidOptions indicates options outside their valid domain
	ErrInvalidOptions = errors.New("tfbayes: invalid options")
	// ErrParsePartition indicates malformed partition text
	ErrParsePartition = errors.New("tfbayes: cannot parse partition")
	// ErrInvalidPartition indicates a partition that cannot be applied to the data
	ErrInvalidPartition = errors.New("tfbayes: partition does not fit the data")
)
