package symbols

// latexToUnicode is the display table for every LaTeX value the classifier can emit.
var latexToUnicode = map[string]string{
	// Greek lowercase
	`\alpha`: "α", `\beta`: "β", `\gamma`: "γ", `\delta`: "δ",
	`\epsilon`: "ε", `\varepsilon`: "ε", `\zeta`: "ζ", `\eta`: "η",
	`\theta`: "θ", `\vartheta`: "ϑ", `\iota`: "ι", `\kappa`: "κ",
	`\lambda`: "λ", `\mu`: "μ", `\nu`: "ν", `\xi`: "ξ",
	`\pi`: "π", `\varpi`: "ϖ", `\rho`: "ρ", `\varrho`: "ϱ",
	`\sigma`: "σ", `\varsigma`: "ς", `\tau`: "τ", `\upsilon`: "υ",
	`\phi`: "φ", `\varphi`: "φ", `\chi`: "χ", `\psi`: "ψ", `\omega`: "ω",

	// Greek uppercase
	`\Gamma`: "Γ", `\Delta`: "Δ", `\Theta`: "Θ", `\Lambda`: "Λ",
	`\Xi`: "Ξ", `\Pi`: "Π", `\Sigma`: "Σ", `\Upsilon`: "Υ",
	`\Phi`: "Φ", `\Psi`: "Ψ", `\Omega`: "Ω",

	// Operators
	`\sum`: "∑", `\prod`: "∏", `\coprod`: "∐", `\int`: "∫", `\iint`: "∬",
	`\oint`: "∮", `\infty`: "∞", `\partial`: "∂", `\nabla`: "∇",
	`\pm`: "±", `\mp`: "∓", `\times`: "×", `\div`: "÷",
	`\cdot`: "·", `\ast`: "∗", `\star`: "⋆", `\circ`: "∘", `\bullet`: "∙",
	`\oplus`: "⊕", `\otimes`: "⊗", `\odot`: "⊙", `\setminus`: "∖",
	`\sqrt`: "√", `\hbar`: "ℏ", `\ell`: "ℓ", `\Re`: "ℜ", `\Im`: "ℑ",
	`\aleph`: "ℵ", `\wp`: "℘",

	// Relations
	`\neq`: "≠", `\ne`: "≠", `\leq`: "≤", `\le`: "≤", `\geq`: "≥", `\ge`: "≥",
	`\leqslant`: "⩽", `\geqslant`: "⩾", `\ll`: "≪", `\gg`: "≫",
	`\approx`: "≈", `\equiv`: "≡", `\sim`: "∼", `\simeq`: "≃", `\cong`: "≅",
	`\propto`: "∝", `\prec`: "≺", `\succ`: "≻", `\preceq`: "⪯", `\succeq`: "⪰",
	`\mid`: "∣", `\models`: "⊨", `\vdash`: "⊢", `\dashv`: "⊣", `\asymp`: "≍",
	`\doteq`: "≐",

	// Logic
	`\forall`: "∀", `\exists`: "∃", `\nexists`: "∄", `\neg`: "¬", `\lnot`: "¬",
	`\wedge`: "∧", `\land`: "∧", `\vee`: "∨", `\lor`: "∨", `\top`: "⊤", `\bot`: "⊥",
	`\therefore`: "∴", `\because`: "∵", `\blacksquare`: "■", `\square`: "□",
	`\Box`: "□", `\diamond`: "⋄", `\Diamond`: "◇", `\checkmark`: "✓",

	// Sets
	`\emptyset`: "∅", `\varnothing`: "∅", `\cap`: "∩", `\cup`: "∪",
	`\bigcap`: "⋂", `\bigcup`: "⋃", `\subset`: "⊂", `\supset`: "⊃",
	`\subseteq`: "⊆", `\supseteq`: "⊇", `\subsetneq`: "⊊", `\supsetneq`: "⊋",
	`\in`: "∈", `\notin`: "∉", `\ni`: "∋", `\sqcup`: "⊔", `\uplus`: "⊎",
	`\mathbb{N}`: "ℕ", `\mathbb{Z}`: "ℤ", `\mathbb{Q}`: "ℚ",
	`\mathbb{R}`: "ℝ", `\mathbb{C}`: "ℂ", `\mathbb{1}`: "𝟙",

	// Arrows
	`\rightarrow`: "→", `\leftarrow`: "←", `\uparrow`: "↑", `\downarrow`: "↓",
	`\Rightarrow`: "⇒", `\Leftarrow`: "⇐", `\Uparrow`: "⇑", `\Downarrow`: "⇓",
	`\leftrightarrow`: "↔", `\Leftrightarrow`: "⇔", `\longrightarrow`: "⟶",
	`\Longrightarrow`: "⟹", `\Longleftrightarrow`: "⟺", `\iff`: "⟺", `\implies`: "⟹",
	`\to`: "→", `\gets`: "←", `\mapsto`: "↦", `\hookrightarrow`: "↪",
	`\nearrow`: "↗", `\searrow`: "↘", `\nwarrow`: "↖", `\swarrow`: "↙",
	`\rightleftharpoons`: "⇌", `\rightrightarrows`: "⇉", `\leadsto`: "⇝",
	`\circlearrowleft`: "↺", `\circlearrowright`: "↻",

	// Geometry
	`\angle`: "∠", `\measuredangle`: "∡", `\perp`: "⊥", `\parallel`: "∥",
	`\triangle`: "△", `\nparallel`: "∦", `\degree`: "°", `\circledR`: "®",
	`\copyright`: "©", `\S`: "§", `\dag`: "†", `\dots`: "…", `\ldots`: "…",
	`\cdots`: "⋯", `\vdots`: "⋮", `\ddots`: "⋱", `\langle`: "⟨", `\rangle`: "⟩",
	`\lceil`: "⌈", `\rceil`: "⌉", `\lfloor`: "⌊", `\rfloor`: "⌋", `\|`: "‖",
	`\#`: "#", `\%`: "%", `\&`: "&", `\$`: "$", `\{`: "{", `\}`: "}",

	// Superscripts
	"^0": "⁰", "^1": "¹", "^2": "²", "^3": "³", "^4": "⁴",
	"^5": "⁵", "^6": "⁶", "^7": "⁷", "^8": "⁸", "^9": "⁹",
	"^+": "⁺", "^-": "⁻", "^=": "⁼", "^(": "⁽", "^)": "⁾",
	"^n": "ⁿ", "^i": "ⁱ", `^\prime`: "′", `\prime`: "′",

	// Subscripts
	"_0": "₀", "_1": "₁", "_2": "₂", "_3": "₃", "_4": "₄",
	"_5": "₅", "_6": "₆", "_7": "₇", "_8": "₈", "_9": "₉",
	"_+": "₊", "_-": "₋", "_=": "₌", "_(": "₍", "_)": "₎",
	"_i": "ᵢ", "_j": "ⱼ", "_n": "ₙ", "_k": "ₖ", "_x": "ₓ",
}

func init() {
	for r := '0'; r <= '9'; r++ {
		latexToUnicode[string(r)] = string(r)
	}
	for r := 'a'; r <= 'z'; r++ {
		latexToUnicode[string(r)] = string(r)
	}
	for r := 'A'; r <= 'Z'; r++ {
		latexToUnicode[string(r)] = string(r)
	}
	for _, p := range []string{"+", "-", "=", "<", ">", "(", ")", "[", "]", "{", "}",
		"/", "*", "^", "_", "!", "?", ".", ",", ":", ";", "|", "'", "~"} {
		latexToUnicode[p] = p
	}
}
