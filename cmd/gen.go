// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.
package cmd

import (
	"io"
	"log"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/pilosa/sparkify/etl"
	"github.com/spf13/cobra"
)

// GenMain is wrapped by NewGenCommand and only exported for testing purposes.
var GenMain *etl.GenMain

// NewGenCommand returns a new cobra command wrapping GenMain.
func NewGenCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	GenMain = etl.NewGenMain()
	genCommand := &cobra.Command{
		Use:   "gen",
		Short: "Generate a fake song catalog and activity logs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			if err := GenMain.Run(); err != nil {
				return err
			}
			log.New(stderr, "", log.LstdFlags).Println("Done: ", time.Since(start))
			return nil
		},
	}
	err := commandeer.Flags(genCommand.Flags(), GenMain)
	if err != nil {
		panic(err)
	}
	return genCommand
}

func init() {
	subcommandFns["gen"] = NewGenCommand
}
