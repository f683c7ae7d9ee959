/*
 *  partition_test.go
 *  tfbayes
 *
 *  Created by Haibao Tang on 10/15/26
 *  Copyright © 2026 Haibao Tang. All rights reserved.
 */

package tfbayes_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tanghaibao/tfbayes"
)

func TestPartitionRoundTrip(t *testing.T) {
	for _, text := range []string{
		"",
		"baseline-default:10:{(0,12):10}",
		"baseline-default:10:{(0,12):10, (3,40):10!}, baseline-default:10:{(1,7):10}",
		"motif-a:8:{}, motif-b:8:{(2,0):8!}",
	} {
		p, err := tfbayes.ParsePartition(text)
		require.NoError(t, err, text)
		require.Equal(t, text, p.String())
	}
}

func TestPartitionWhitespace(t *testing.T) {
	p, err := tfbayes.ParsePartition("  baseline-default : 10 : { ( 0 , 12 ) : 10 ,(3,40):10 ! } ")
	require.NoError(t, err)
	require.Equal(t, "baseline-default:10:{(0,12):10, (3,40):10!}", p.String())
	require.Equal(t, 2, p.Len())
	require.True(t, p[0].Ranges[1].Reverse)
	require.Equal(t, tfbayes.BaselineTag("baseline-default"), p[0].Tag.ModelID)
}

func TestPartitionParseErrors(t *testing.T) {
	for _, text := range []string{
		"baseline-default:10:{(0,12):10",
		"baseline-default:10:(0,12):10}",
		"baseline-default:{(0,12):10}",
		"baseline-default:10:{(0,x):10}",
		"baseline-default:10:{(0,12):10} trailing",
		":10:{}",
	} {
		_, err := tfbayes.ParsePartition(text)
		require.Error(t, err, text)
		require.True(t, errors.Is(err, tfbayes.ErrParsePartition), text)
	}
}

func TestPartitionSort(t *testing.T) {
	p, err := tfbayes.ParsePartition("b:4:{(1,9):4, (0,3):4}, a:4:{(0,1):4}")
	require.NoError(t, err)
	p.Sort()
	require.Equal(t, "a:4:{(0,1):4}, b:4:{(0,3):4, (1,9):4}", p.String())
}

func TestReadPartitions(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "sample.partition")
	content := "# sampled partitions\n" +
		"baseline-default:10:{(0,12):10}\n" +
		"\n" +
		"baseline-default:10:{(0,12):10, (1,3):10!}\n"
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o644))
	partitions, err := tfbayes.ReadPartitions(filename)
	require.NoError(t, err)
	require.Len(t, partitions, 2)
	require.Equal(t, 2, partitions[1].Len())

	require.NoError(t, os.WriteFile(filename, []byte("broken:{\n"), 0o644))
	_, err = tfbayes.ReadPartitions(filename)
	require.True(t, errors.Is(err, tfbayes.ErrParsePartition))
}

func TestSavePartitions(t *testing.T) {
	a, err := tfbayes.ParsePartition("baseline-default:10:{(0,12):10, (1,3):10!}")
	require.NoError(t, err)
	b, err := tfbayes.ParsePartition("baseline-default:10:{(2,0):10}")
	require.NoError(t, err)
	for _, name := range []string{"saved.partition", "saved.partition.gz"} {
		filename := filepath.Join(t.TempDir(), name)
		require.NoError(t, tfbayes.SavePartitions(filename, a, b))
		partitions, err := tfbayes.ReadPartitions(filename)
		require.NoError(t, err)
		require.Len(t, partitions, 2)
		require.Equal(t, a.String(), partitions[0].String())
		require.Equal(t, b.String(), partitions[1].String())
	}
}
